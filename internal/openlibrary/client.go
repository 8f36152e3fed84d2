// Package openlibrary реализует клиент внешнего источника метаданных книг.
// Используется только при создании записи каталога для предзаполнения
// названия, автора и обложки по ISBN; логика выдач к нему не обращается.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

// Client — HTTP-клиент OpenLibrary.
type Client struct {
	apiURL     string
	coversURL  string
	httpClient *http.Client
}

// NewClient создаёт новый клиент OpenLibrary.
func NewClient() *Client {
	return &Client{
		apiURL:     "https://openlibrary.org",
		coversURL:  "https://covers.openlibrary.org",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type editionResponse struct {
	Title   string `json:"title"`
	Covers  []int  `json:"covers"`
	Authors []struct {
		Key string `json:"key"`
	} `json:"authors"`
}

type authorResponse struct {
	Name string `json:"name"`
}

// FetchByISBN запрашивает метаданные книги по нормализованному ISBN.
// Обложка подбирается по идентификатору из ответа, а при его отсутствии —
// по самому ISBN. Имя автора требует отдельного запроса и может остаться
// пустым, если он не удался.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*models.BookMetadata, error) {
	const op = "openlibrary.FetchByISBN"

	var edition editionResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.apiURL, isbn), &edition); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meta := &models.BookMetadata{
		Title:    edition.Title,
		CoverURL: fmt.Sprintf("%s/b/isbn/%s-L.jpg", c.coversURL, isbn),
	}
	if len(edition.Covers) > 0 {
		meta.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversURL, edition.Covers[0])
	}

	if len(edition.Authors) > 0 && edition.Authors[0].Key != "" {
		var author authorResponse
		if err := c.getJSON(ctx, c.apiURL+edition.Authors[0].Key+".json", &author); err == nil {
			meta.Author = author.Name
		}
	}

	return meta, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status: " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
