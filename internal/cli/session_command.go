package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/player"
	"github.com/subtitle-study/app/internal/study"
)

const sessionHelp = `commands:
  p | play | pause      toggle playback
  goto <n>              seek to the n-th entry (1-based)
  ff | rw               seek forward / back one step
  repeat | stop         loop the highlighted entry / end the loop
  rate                  cycle 1.0x, 1.25x, 0.75x
  sync                  suspend or resume highlight tracking
  select <id> | deselect <id>
  translate             translate the selected entries
  lookup <text>         translate free text
  edit <id> <text>      replace the translation of one entry
  save <savedId>        push edits to a saved video
  store [title]         save this video with the current entries
  list | status | help | quit
`

func runSession(e *env, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	saved := fs.Bool("saved", false, "study the saved (editable) copy")
	duration := fs.Float64("duration", 0, "simulated video length in seconds (default: end of the last entry)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	videoID, err := singleArg("session", fs.Args(), "videoId")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(e.ctx)
	defer cancel()

	clock := clockwork.NewRealClock()
	p := player.NewSimulated(clock, *duration)
	s := study.NewSession(p, e.client, study.WithClock(clock), study.WithSeekStep(e.cfg.SeekStep))
	defer p.Close()
	defer s.Close()

	if *saved {
		err = s.FetchSaved(ctx, videoID)
	} else {
		err = s.Fetch(ctx, videoID)
	}
	if err != nil {
		return err
	}
	if *duration <= 0 {
		p.SetDuration(endOf(s.Snapshot().Entries))
	}

	go p.Run(ctx)
	go s.Run(ctx)
	go printEvents(ctx, s.Events())

	if err := p.Play(ctx); err != nil {
		return err
	}
	printf("studying %s: %d entries, type help for commands\n", videoID, len(s.Snapshot().Entries))

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		quit, err := execSessionCommand(ctx, s, videoID, scanner.Text())
		if err != nil {
			printf("error: %v\n", describe(err))
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func endOf(entries []models.SubtitleEntry) float64 {
	var end float64
	for _, s := range entries {
		if t := s.Start + s.Duration; t > end {
			end = t
		}
	}
	return end
}

// printEvents writes highlight changes, loop seeks and errors as they are published.
func printEvents(ctx context.Context, bus *study.EventBus) {
	var seq int64
	last := study.NoHighlight
	for {
		select {
		case <-ctx.Done():
			return
		case <-bus.Notify():
		}
		for _, ev := range bus.Since(seq) {
			seq = ev.Seq
			switch ev.Type {
			case study.EventState:
				st := ev.State
				if st.Current == last {
					continue
				}
				last = st.Current
				if st.HasHighlight() {
					entry := st.Entries[st.Current]
					printf("> [%d] %s  %s\n", entry.ID, formatSeconds(entry.Start), entry.SourceText)
					if entry.TranslatedText != "" {
						printf("        %s\n", entry.TranslatedText)
					}
				}
			case study.EventSeek:
				printf("~ loop %s\n", formatSeconds(ev.Seek))
			case study.EventError:
				printf("! %s\n", ev.Message)
			}
		}
	}
}

// execSessionCommand runs one REPL line. quit is true when the user leaves.
func execSessionCommand(ctx context.Context, s *study.Session, videoID, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch fields[0] {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		printf("%s", sessionHelp)
	case "p", "play", "pause":
		s.TogglePlayback(ctx)
	case "goto":
		n, err := intArg(fields)
		if err != nil {
			return false, err
		}
		return false, s.SeekToIndex(ctx, n-1)
	case "ff":
		return false, s.FastForward(ctx)
	case "rw":
		return false, s.Rewind(ctx)
	case "repeat":
		if !s.StartRepeat() {
			return false, errors.New("nothing to repeat: no highlighted entry with a successor")
		}
	case "stop":
		s.StopRepeat()
	case "rate":
		rate, err := s.ChangePlaybackRate(ctx)
		if err != nil {
			return false, err
		}
		printf("rate %.2fx\n", float64(rate))
	case "sync":
		st := s.ToggleSync()
		if st.SyncSuspended {
			printf("highlight tracking suspended\n")
		} else {
			printf("highlight tracking resumed\n")
		}
	case "select", "deselect":
		id, err := intArg(fields)
		if err != nil {
			return false, err
		}
		if fields[0] == "select" {
			s.Select(id)
		} else {
			s.Deselect(id)
		}
	case "translate":
		if err := s.TranslateSelection(ctx); err != nil {
			return false, err
		}
		printf("%s", formatEntries(s.Snapshot().Selected()))
	case "lookup":
		if arg == "" {
			return false, errors.New("usage: lookup <text>")
		}
		out, err := s.TranslateContent(ctx, arg)
		if err != nil {
			return false, err
		}
		printf("%s\n", out)
	case "edit":
		if len(fields) < 3 {
			return false, errors.New("usage: edit <id> <text>")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid id %q", fields[1])
		}
		text := strings.TrimSpace(strings.TrimPrefix(arg, fields[1]))
		return false, s.EditEntry(id, "", text)
	case "save":
		id, err := intArg(fields)
		if err != nil {
			return false, err
		}
		if err := s.SaveEdits(ctx, id); err != nil {
			return false, err
		}
		printf("saved edits to %d\n", id)
	case "store":
		title := arg
		if title == "" {
			title = videoID
		}
		if err := s.Store(ctx, models.VideoSummary{VideoID: videoID, Title: title}); err != nil {
			return false, err
		}
		printf("stored %s\n", videoID)
	case "list":
		printf("%s", formatEntries(s.Snapshot().Entries))
	case "status":
		st := s.Snapshot()
		printf("phase=%s position=%s current=%d rate=%.2fx paused=%v selected=%d\n",
			st.Phase(), formatSeconds(st.Position), st.Current, float64(st.Rate), st.Paused, len(st.Pending))
		if st.ErrorMessage != "" {
			printf("error: %s\n", st.ErrorMessage)
			s.DismissError()
		}
	default:
		return false, fmt.Errorf("unknown command %q, type help", fields[0])
	}
	return false, nil
}

func intArg(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <n>", fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", fields[1])
	}
	return n, nil
}
