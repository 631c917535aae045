package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ContentClient asks the content service whether chapters and novels exist.
type ContentClient struct {
	peer *peer
}

// NewContentClient builds a content service client rooted at baseURL.
func NewContentClient(baseURL string, timeout time.Duration) *ContentClient {
	return &ContentClient{peer: newPeer("content", baseURL, timeout, DefaultBreakerConfig())}
}

type validity struct {
	ID    uint `json:"id"`
	Valid bool `json:"valid"`
}

// ChapterExists reports whether the chapter exists. A 404 is a plain false.
func (c *ContentClient) ChapterExists(ctx context.Context, chapterID uint) (bool, error) {
	return c.exists(ctx, "chapter", fmt.Sprintf("/api/v1/chapters/%d", chapterID))
}

// NovelExists reports whether the novel exists.
func (c *ContentClient) NovelExists(ctx context.Context, novelID uint) (bool, error) {
	return c.exists(ctx, "novel", fmt.Sprintf("/api/v1/novels/%d", novelID))
}

func (c *ContentClient) exists(ctx context.Context, op, path string) (bool, error) {
	var v validity
	err := c.peer.get(ctx, op, path, &v)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.Valid, nil
}

// ChaptersExist checks several chapters in one call. Chapters missing from
// the answer are reported as absent.
func (c *ContentClient) ChaptersExist(ctx context.Context, chapterIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(chapterIDs))
	if len(chapterIDs) == 0 {
		return result, nil
	}
	ids := make([]string, len(chapterIDs))
	for i, id := range chapterIDs {
		ids[i] = strconv.FormatUint(uint64(id), 10)
		result[id] = false
	}

	var resp struct {
		Chapters []validity `json:"chapters"`
	}
	path := "/api/v1/chapters?ids=" + url.QueryEscape(strings.Join(ids, ","))
	if err := c.peer.get(ctx, "chapters", path, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result, nil
		}
		return nil, err
	}
	for _, ch := range resp.Chapters {
		if _, asked := result[ch.ID]; asked {
			result[ch.ID] = ch.Valid
		}
	}
	return result, nil
}
