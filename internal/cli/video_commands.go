package cli

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func runSearch(e *env, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	page := fs.String("page", "", "page token from a previous search")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fs.Usage()
		return errors.New("search query is required")
	}

	// The client sends query values verbatim.
	resp, err := e.client.Search(e.ctx, url.QueryEscape(query), url.QueryEscape(*page))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(resp)
	}
	if len(resp.Items) == 0 {
		printf("no videos match %q\n", query)
		return nil
	}
	for _, v := range resp.Items {
		printf("%-14s  %s", v.VideoID, v.Title)
		if v.ChannelTitle != "" {
			printf("  (%s)", v.ChannelTitle)
		}
		printf("\n")
	}
	if resp.NextPageToken != "" {
		printf("next page: study search --page %s %s\n", resp.NextPageToken, query)
	}
	return nil
}

func runSaved(e *env, args []string) error {
	fs := flag.NewFlagSet("saved", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	videos, err := e.client.SavedVideos(e.ctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(videos)
	}
	if len(videos) == 0 {
		printf("no saved videos\n")
		return nil
	}
	for _, v := range videos {
		printf("%5d  %-14s  %-40s  %3d cues  %s\n", v.ID, v.VideoID, v.Title, len(v.Subtitles), v.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runCheck(e *env, args []string) error {
	videoID, err := singleArg("check", args, "videoId")
	if err != nil {
		return err
	}
	resp, err := e.client.CheckVideoAlreadySaved(e.ctx, videoID)
	if err != nil {
		return err
	}
	if !resp.IsVideoAlreadySaved || resp.ID == nil {
		printf("%s is not saved\n", videoID)
		return nil
	}
	printf("%s is saved as %d\n", videoID, *resp.ID)
	return nil
}

func runUnsave(e *env, args []string) error {
	raw, err := singleArg("unsave", args, "savedId")
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid saved id %q", raw)
	}
	if err := e.client.DeleteSavedVideo(e.ctx, id); err != nil {
		return err
	}
	printf("deleted saved video %d\n", id)
	return nil
}

func singleArg(cmd string, args []string, name string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: study %s <%s>", cmd, name)
	}
	return strings.TrimSpace(args[0]), nil
}
