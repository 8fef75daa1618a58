package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/subtitle-study/app/internal/models"
)

// call builds a descriptor for method/path, attaches an optional JSON body and runs it.
func call[T any](ctx context.Context, c *Client, method, path string, body any, configure func(*RequestDescriptor)) (T, error) {
	var zero T
	d, err := c.descriptor(ctx, method, path)
	if err != nil {
		return zero, err
	}
	if body != nil {
		data, err := jsonBody(body)
		if err != nil {
			return zero, err
		}
		d.Body = data
	}
	if configure != nil {
		configure(&d)
	}
	return Do[T](ctx, c, d)
}

func (c *Client) SignUp(ctx context.Context, name, email, password string) (models.AuthPayload, error) {
	return call[models.AuthPayload](ctx, c, http.MethodPost, "/api/sign_up",
		models.AuthPayload{Name: name, Email: email, Password: password}, nil)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (models.AuthPayload, error) {
	return call[models.AuthPayload](ctx, c, http.MethodPost, "/api/sign_in",
		models.AuthPayload{Email: email, Password: password}, nil)
}

// CheckEmail reports whether email is already registered.
func (c *Client) CheckEmail(ctx context.Context, email string) (models.AuthPayload, error) {
	return call[models.AuthPayload](ctx, c, http.MethodPost, "/api/check_email",
		models.CheckEmailRequest{Email: email}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, email, password string) error {
	_, err := call[models.Empty](ctx, c, http.MethodDelete, "/api/delete_account",
		models.DeleteAccountRequest{Email: email, Password: password}, nil)
	return err
}

// Search returns one page of videos matching query. pageToken is empty for the first page.
func (c *Client) Search(ctx context.Context, query, pageToken string) (models.SearchResponse, error) {
	return call[models.SearchResponse](ctx, c, http.MethodGet, "/api/search", nil, func(d *RequestDescriptor) {
		d.Query = map[string]string{
			"query":           query,
			"next_page_token": pageToken,
		}
	})
}

func (c *Client) SavedVideos(ctx context.Context) ([]models.SavedVideo, error) {
	return call[[]models.SavedVideo](ctx, c, http.MethodGet, "/api/get_saved_videos", nil, nil)
}

func (c *Client) DeleteSavedVideo(ctx context.Context, id int) error {
	_, err := call[models.Empty](ctx, c, http.MethodDelete, "/api/delete_saved_videos",
		models.DeleteSavedVideoRequest{ID: id}, nil)
	return err
}

func (c *Client) CheckVideoAlreadySaved(ctx context.Context, videoID string) (models.CheckSavedResponse, error) {
	return call[models.CheckSavedResponse](ctx, c, http.MethodPost, "/api/check_video_already_saved",
		models.CheckSavedRequest{VideoID: videoID}, nil)
}

// Subtitles fetches freshly extracted subtitles for a video.
func (c *Client) Subtitles(ctx context.Context, videoID string) ([]models.SubtitleEntry, error) {
	return call[[]models.SubtitleEntry](ctx, c, http.MethodGet, "/api/get_subtitles", nil, func(d *RequestDescriptor) {
		d.PathSegments = []string{videoID}
	})
}

// SavedSubtitles fetches the persisted subtitles of a saved video.
func (c *Client) SavedSubtitles(ctx context.Context, videoID string) ([]models.SubtitleEntry, error) {
	return call[[]models.SubtitleEntry](ctx, c, http.MethodGet, "/api/get_saved_subtitles", nil, func(d *RequestDescriptor) {
		d.PathSegments = []string{videoID}
	})
}

func (c *Client) StoreSubtitles(ctx context.Context, req models.StoreSubtitlesRequest) error {
	_, err := call[models.Empty](ctx, c, http.MethodPost, "/api/store_subtitles", req, nil)
	return err
}

// UpdateSubtitles replaces the persisted subtitles of saved video savedID.
func (c *Client) UpdateSubtitles(ctx context.Context, savedID int, entries []models.SubtitleEntry) error {
	_, err := call[models.Empty](ctx, c, http.MethodPut, "/api/update_subtitles", entries, func(d *RequestDescriptor) {
		d.Query = map[string]string{"id": strconv.Itoa(savedID)}
	})
	return err
}

// TranslateSubtitles asks for translations of entries; the answer is keyed by entry id.
func (c *Client) TranslateSubtitles(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error) {
	resp, err := call[models.TranslateResponse](ctx, c, http.MethodPost, "/api/translate_subtitles",
		models.TranslateSubtitlesRequest{Subtitles: entries, ArrayCount: len(entries)}, nil)
	if err != nil {
		return nil, err
	}
	return resp.Answer, nil
}

// TranslateContent translates a free-text fragment.
func (c *Client) TranslateContent(ctx context.Context, content string) (string, error) {
	resp, err := call[models.TranslateResponse](ctx, c, http.MethodPost, "/api/translate_subtitles",
		models.TranslateContentRequest{Content: content}, nil)
	if err != nil {
		return "", err
	}
	return resp.Answer[models.ContentAnswerKey], nil
}
