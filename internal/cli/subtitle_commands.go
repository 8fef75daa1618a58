package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/subtitle/translate"
)

func runSubtitles(e *env, args []string) error {
	fs := flag.NewFlagSet("subtitles", flag.ContinueOnError)
	saved := fs.Bool("saved", false, "read the saved (editable) copy")
	vtt := fs.Bool("vtt", false, "print WebVTT instead of a table")
	copyOut := fs.Bool("copy", false, "copy the output to the clipboard")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	videoID, err := singleArg("subtitles", fs.Args(), "videoId")
	if err != nil {
		return err
	}

	entries, err := e.fetchEntries(videoID, *saved)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(entries)
	}

	var text string
	if *vtt {
		text = translate.EntriesToVTT(entries)
	} else {
		text = formatEntries(entries)
	}
	if *copyOut {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		printf("copied %d entries to the clipboard\n", len(entries))
		return nil
	}
	printf("%s", text)
	return nil
}

func (e *env) fetchEntries(videoID string, saved bool) ([]models.SubtitleEntry, error) {
	if saved {
		return e.client.SavedSubtitles(e.ctx, videoID)
	}
	return e.client.Subtitles(e.ctx, videoID)
}

func formatEntries(entries []models.SubtitleEntry) string {
	var b strings.Builder
	for i, s := range entries {
		id := s.ID
		if id == 0 {
			id = i + 1
		}
		fmt.Fprintf(&b, "%4d  %s  %s\n", id, formatSeconds(s.Start), s.SourceText)
		if s.TranslatedText != "" {
			fmt.Fprintf(&b, "      %s  %s\n", strings.Repeat(" ", len(formatSeconds(s.Start))), s.TranslatedText)
		}
	}
	return b.String()
}

func runStore(e *env, args []string) error {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	title := fs.String("title", "", "video title (default: the catalog title)")
	thumbnail := fs.String("thumbnail", "", "thumbnail URL")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	videoID, err := singleArg("store", fs.Args(), "videoId")
	if err != nil {
		return err
	}

	entries, err := e.client.Subtitles(e.ctx, videoID)
	if err != nil {
		return err
	}
	if *title == "" {
		*title = videoID
	}
	err = e.client.StoreSubtitles(e.ctx, models.StoreSubtitlesRequest{
		VideoID:      videoID,
		Title:        *title,
		ThumbnailURL: *thumbnail,
		Subtitles:    entries,
	})
	if err != nil {
		return err
	}
	printf("saved %s with %d entries\n", videoID, len(entries))
	return nil
}

func runTranslate(e *env, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	text := fs.String("text", "", "translate free text instead of subtitle entries")
	ids := fs.String("ids", "", "comma-separated entry ids (default: all)")
	saved := fs.Bool("saved", false, "translate the saved copy")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*text) != "" {
		out, err := e.client.TranslateContent(e.ctx, *text)
		if err != nil {
			return err
		}
		printf("%s\n", out)
		return nil
	}

	videoID, err := singleArg("translate", fs.Args(), "videoId")
	if err != nil {
		return err
	}
	entries, err := e.fetchEntries(videoID, *saved)
	if err != nil {
		return err
	}
	entries = numbered(entries)
	selected, err := selectEntries(entries, *ids)
	if err != nil {
		return err
	}
	answer, err := e.client.TranslateSubtitles(e.ctx, selected)
	if err != nil {
		return err
	}
	for _, s := range selected {
		printf("%4d  %s\n      %s\n", s.ID, s.SourceText, answer[strconv.Itoa(s.ID)])
	}
	return nil
}

// numbered gives id-less fresh entries their 1-based position as id.
func numbered(entries []models.SubtitleEntry) []models.SubtitleEntry {
	out := append([]models.SubtitleEntry(nil), entries...)
	for i := range out {
		if out[i].ID == 0 {
			out[i].ID = i + 1
		}
	}
	return out
}

func selectEntries(entries []models.SubtitleEntry, ids string) ([]models.SubtitleEntry, error) {
	if strings.TrimSpace(ids) == "" {
		return entries, nil
	}
	byID := make(map[int]models.SubtitleEntry, len(entries))
	for _, s := range entries {
		byID[s.ID] = s
	}
	var out []models.SubtitleEntry
	for _, raw := range strings.Split(ids, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", raw)
		}
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no entry with id %d", id)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, errors.New("no entries selected")
	}
	return out, nil
}
