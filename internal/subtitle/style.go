package subtitle

import "strings"

// forceStyle is the fixed burn-in styling for vertical shorts: bold readable
// face, white fill, black outline with shadow, anchored high in the frame.
const forceStyle = "Fontname=Arial Black," +
	"Fontsize=18," +
	"PrimaryColour=&H00FFFFFF," +
	"OutlineColour=&H00000000," +
	"BorderStyle=3," +
	"Outline=2," +
	"Shadow=1," +
	"MarginV=50," +
	"Alignment=2," +
	"Bold=1"

// BurnInFilter builds the complete subtitles filter expression for srtPath.
// The path is escaped for the filter parser: backslashes become forward
// slashes and colons (drive letters, mostly) are escaped.
func BurnInFilter(srtPath string) string {
	escaped := strings.ReplaceAll(srtPath, "\\", "/")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	return "subtitles='" + escaped + "':force_style='" + forceStyle + "'"
}
