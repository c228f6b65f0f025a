package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/franz/recsync/internal/store"
)

// FFprobeInfo represents the output from ffprobe
type FFprobeInfo struct {
	Streams  []FFprobeStream  `json:"streams"`
	Programs []FFprobeProgram `json:"programs"`
	Format   *FFprobeFormat   `json:"format"`
}

// IntOrString can unmarshal both integers and strings from JSON
type IntOrString struct {
	Value int
}

// UnmarshalJSON implements custom unmarshaling for IntOrString
func (i *IntOrString) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		i.Value = intVal
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err != nil {
		return err
	}

	if strVal == "" || strVal == "N/A" {
		i.Value = 0
		return nil
	}

	parsed, err := strconv.Atoi(strVal)
	if err != nil {
		i.Value = 0
		return nil
	}

	i.Value = parsed
	return nil
}

// FFprobeStream represents one elementary stream
type FFprobeStream struct {
	Index         int         `json:"index"`
	CodecName     string      `json:"codec_name"`
	CodecType     string      `json:"codec_type"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	SampleRate    IntOrString `json:"sample_rate"`
	Channels      int         `json:"channels"`
	ChannelLayout string      `json:"channel_layout"`
	Duration      string      `json:"duration"`
	BitRate       string      `json:"bit_rate"`
}

// FFprobeProgram represents one service carried in a transport stream
type FFprobeProgram struct {
	ProgramID  int               `json:"program_id"`
	ProgramNum int               `json:"program_num"`
	Tags       map[string]string `json:"tags"`
}

// FFprobeFormat represents container format metadata
type FFprobeFormat struct {
	Filename       string            `json:"filename"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

// RunFFprobe executes ffprobe and parses the JSON output
func RunFFprobe(ctx context.Context, path string) (*FFprobeInfo, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_programs",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		// ffprobe rejecting the file is the expected unparseable case;
		// everything else (killed, not executable) is an ordinary error
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: ffprobe: %s", ErrUnparseable, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info FFprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return &info, nil
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// FFprobeAnalyzer is the default Analyzer. It shells out to ffprobe and maps
// the probed container, video and audio streams onto catalog drafts.
// The zero value is ready to use and safe for concurrent use.
type FFprobeAnalyzer struct{}

// Analyze implements Analyzer
func (a *FFprobeAnalyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	info, err := RunFFprobe(ctx, path)
	if err != nil {
		return nil, err
	}

	video := buildVideoDraft(info)
	if video == nil {
		return nil, fmt.Errorf("%w: no playable video stream", ErrUnparseable)
	}

	if stat, err := os.Stat(path); err == nil {
		video.FileSize = stat.Size()
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	program := &store.Program{
		Title:    title,
		Duration: video.Duration,
	}

	return &Analysis{
		Video:   video,
		Program: program,
		Channel: buildChannelDraft(info),
	}, nil
}

// buildVideoDraft maps probed streams to a video draft, or nil if the file
// has no recognizable video stream
func buildVideoDraft(info *FFprobeInfo) *store.Video {
	if info.Format == nil {
		return nil
	}

	var videoStream *FFprobeStream
	var audioStreams []*FFprobeStream
	for i := range info.Streams {
		s := &info.Streams[i]
		switch s.CodecType {
		case "video":
			if videoStream == nil {
				videoStream = s
			}
		case "audio":
			audioStreams = append(audioStreams, s)
		}
	}
	if videoStream == nil {
		return nil
	}

	v := &store.Video{
		ContainerFormat:       containerName(info.Format.FormatName),
		VideoCodec:            videoCodecName(videoStream.CodecName),
		VideoResolutionWidth:  videoStream.Width,
		VideoResolutionHeight: videoStream.Height,
		Duration:              parseSeconds(info.Format.Duration),
	}
	if v.ContainerFormat == "" || v.VideoCodec == "" {
		return nil
	}

	if len(audioStreams) > 0 {
		s := audioStreams[0]
		v.PrimaryAudioCodec = audioCodecName(s.CodecName)
		v.PrimaryAudioChannel = audioChannelName(s.Channels)
		v.PrimaryAudioSamplingRate = s.SampleRate.Value
	}
	if len(audioStreams) > 1 {
		s := audioStreams[1]
		v.SecondaryAudioCodec = audioCodecName(s.CodecName)
		v.SecondaryAudioChannel = audioChannelName(s.Channels)
		v.SecondaryAudioSamplingRate = s.SampleRate.Value
	}

	return v
}

// buildChannelDraft maps the first probed service to a channel draft, or nil
// when the container carries no service info (e.g. a stripped stream)
func buildChannelDraft(info *FFprobeInfo) *store.Channel {
	for _, p := range info.Programs {
		name := p.Tags["service_name"]
		if name == "" || p.ProgramID == 0 {
			continue
		}
		return &store.Channel{
			// Stable identity derived from the DVB service ID; recordings of
			// the same service on different days resolve to one channel row.
			// ffprobe does not surface the network ID, so identity is service
			// ID only and network_id stays unset on probed channels
			ID:        fmt.Sprintf("SID%d", p.ProgramID),
			Name:      name,
			Type:      p.Tags["service_provider"],
			ServiceID: p.ProgramID,
		}
	}
	return nil
}

func containerName(formatName string) string {
	// format_name is a comma-separated list of demuxer aliases
	for _, name := range strings.Split(formatName, ",") {
		if strings.TrimSpace(name) == "mpegts" {
			return "MPEG-TS"
		}
	}
	return ""
}

func videoCodecName(codec string) string {
	switch codec {
	case "mpeg2video":
		return "MPEG-2"
	case "h264":
		return "H.264"
	case "hevc":
		return "H.265"
	}
	return ""
}

func audioCodecName(codec string) string {
	switch codec {
	case "aac":
		return "AAC-LC"
	case "aac_latm":
		return "HE-AAC"
	case "mp2":
		return "MP2"
	}
	return ""
}

func audioChannelName(channels int) string {
	switch channels {
	case 1:
		return "Monaural"
	case 2:
		return "Stereo"
	case 6:
		return "5.1ch"
	}
	return ""
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
