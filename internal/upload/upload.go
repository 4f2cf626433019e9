// Package upload publishes finished videos to YouTube.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Science & Technology.
const categoryID = "28"

const uploadChunkSize = 4 * 1024 * 1024

// Metadata describes the video being published.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	PrivacyStatus string
}

// Engine publishes a video file and returns its public URL.
type Engine interface {
	Upload(ctx context.Context, videoPath string, meta Metadata) (string, error)
}

// YouTubeEngine uploads through the YouTube Data API using a stored OAuth
// token. The token file must have been produced by a prior interactive
// consent flow; refresh happens automatically and the refreshed token is
// written back.
type YouTubeEngine struct {
	clientSecretsFile string
	tokenFile         string
	logger            *slog.Logger
}

func NewYouTubeEngine(clientSecretsFile, tokenFile string, logger *slog.Logger) *YouTubeEngine {
	return &YouTubeEngine{
		clientSecretsFile: clientSecretsFile,
		tokenFile:         tokenFile,
		logger:            logger,
	}
}

func (e *YouTubeEngine) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("video file not found: %w", err)
	}
	defer f.Close()

	ts, err := e.tokenSource(ctx)
	if err != nil {
		return "", err
	}

	svc, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("youtube client: %w", err)
	}

	privacy := meta.PrivacyStatus
	if privacy == "" {
		privacy = "private"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	e.logger.Info("uploading video", "path", videoPath, "title", meta.Title, "privacy", privacy)

	call := svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(f, googleapi.ChunkSize(uploadChunkSize)).
		ProgressUpdater(func(current, total int64) {
			if total > 0 {
				e.logger.Info("upload progress", "percent", current*100/total)
			}
		})

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	// Persist the possibly refreshed token for the next run.
	if tok, err := ts.Token(); err == nil {
		if err := e.saveToken(tok); err != nil {
			e.logger.Warn("could not save refreshed token", "error", err)
		}
	}

	url := "https://youtube.com/shorts/" + resp.Id
	e.logger.Info("upload completed", "url", url)
	return url, nil
}

func (e *YouTubeEngine) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	secrets, err := os.ReadFile(e.clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("client secrets file not found: %w", err)
	}
	conf, err := google.ConfigFromJSON(secrets, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("invalid client secrets: %w", err)
	}

	tokenData, err := os.ReadFile(e.tokenFile)
	if err != nil {
		return nil, fmt.Errorf("token file not found, run the consent flow first: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenData, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return conf.TokenSource(ctx, &tok), nil
}

func (e *YouTubeEngine) saveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(e.tokenFile, data, 0600)
}

// Stub logs the request and returns a fixed URL without contacting YouTube.
type Stub struct {
	logger *slog.Logger
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger}
}

func (s *Stub) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	s.logger.Info("upload stub: skipping publish", "path", videoPath, "title", meta.Title)
	return "https://youtube.com/shorts/mock_video_id", nil
}
