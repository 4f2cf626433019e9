// Package stock provides the client for the remote stock-footage provider
// (Pexels video search and download).
package stock

// SearchResponse is the wire schema of the Pexels video search endpoint.
type SearchResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}

// Video is a single search result with its downloadable variants.
type Video struct {
	ID         int64       `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Duration   int         `json:"duration"`
	VideoFiles []VideoFile `json:"video_files"`
}

// VideoFile is one downloadable rendition of a video.
type VideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// BestFile returns the widest downloadable variant, or false if the video
// has none.
func (v Video) BestFile() (VideoFile, bool) {
	var best VideoFile
	found := false
	for _, f := range v.VideoFiles {
		if f.Link == "" {
			continue
		}
		if !found || f.Width > best.Width {
			best = f
			found = true
		}
	}
	return best, found
}
