package quran

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Word is one token of an ayah with its transliteration and gloss.
type Word struct {
	Text            string `json:"text"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
}

// SajdaFlag marks an ayah that calls for a prostration. The API encodes it
// as false when absent and as an object with details when present.
type SajdaFlag bool

func (s *SajdaFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "false", "null", "":
		*s = false
	default:
		*s = true
	}
	return nil
}

// Ayah is a single verse. The juz/manzil/page/ruku/hizb indices are carried
// as-is for display; nothing in this client depends on them.
type Ayah struct {
	Number        int       `json:"number"`
	NumberInSurah int       `json:"numberInSurah"`
	Text          string    `json:"text"`
	Juz           int       `json:"juz"`
	Manzil        int       `json:"manzil"`
	Page          int       `json:"page"`
	Ruku          int       `json:"ruku"`
	HizbQuarter   int       `json:"hizbQuarter"`
	Sajda         SajdaFlag `json:"sajda"`
	Words         []Word    `json:"words"`
}

// Surah is one chapter. Listing responses carry the metadata fields only;
// Ayahs is populated by GetSurah.
type Surah struct {
	Number                 int    `json:"number"`
	Name                   string `json:"name"`
	EnglishName            string `json:"englishName"`
	EnglishNameTranslation string `json:"englishNameTranslation"`
	NumberOfAyahs          int    `json:"numberOfAyahs"`
	RevelationType         string `json:"revelationType"`
	Ayahs                  []Ayah `json:"ayahs"`
}

// TranslationAyah is one verse of a translation edition, aligned by position
// with the surah's ayahs.
type TranslationAyah struct {
	Text string `json:"text"`
}

type Client struct {
	baseURL       string
	tafsirBaseURL string
	http          *http.Client
}

func NewClient(baseURL, tafsirBaseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		tafsirBaseURL: strings.TrimRight(tafsirBaseURL, "/"),
		http:          httpClient,
	}
}

// envelope is the alquran.cloud response wrapper. A non-200 code is a
// failure even when the HTTP status is 200.
type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (c *Client) ListSurahs(ctx context.Context, page int) ([]Surah, error) {
	if page < 1 {
		page = 1
	}

	q := make(url.Values)
	q.Set("page", strconv.Itoa(page))

	var surahs []Surah
	if err := c.getData(ctx, c.baseURL+"/surah?"+q.Encode(), "list surahs", &surahs); err != nil {
		return nil, err
	}
	return surahs, nil
}

func (c *Client) GetSurah(ctx context.Context, number int) (Surah, error) {
	var surah Surah
	resource := fmt.Sprintf("surah %d", number)
	if err := c.getData(ctx, fmt.Sprintf("%s/surah/%d", c.baseURL, number), resource, &surah); err != nil {
		return Surah{}, err
	}
	return surah, nil
}

func (c *Client) GetTranslation(ctx context.Context, number int, edition string) ([]TranslationAyah, error) {
	var data struct {
		Ayahs []TranslationAyah `json:"ayahs"`
	}
	resource := fmt.Sprintf("translation %d/%s", number, edition)
	endpoint := fmt.Sprintf("%s/surah/%d/%s", c.baseURL, number, url.PathEscape(edition))
	if err := c.getData(ctx, endpoint, resource, &data); err != nil {
		return nil, err
	}
	return data.Ayahs, nil
}

// GetTafsir fetches commentary for a single ayah from the quran.com API.
// Responses are free text, usually HTML fragments.
func (c *Client) GetTafsir(ctx context.Context, surah, ayah int) (string, error) {
	q := make(url.Values)
	q.Set("verse_key", fmt.Sprintf("%d:%d", surah, ayah))

	req, err := c.newRequest(ctx, c.tafsirBaseURL+"/tafsirs/en-tafsir-ibn-kathir?"+q.Encode())
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("tafsir request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("tafsir failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Tafsirs []struct {
			Text string `json:"text"`
		} `json:"tafsirs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode tafsir response: %w", err)
	}
	if len(payload.Tafsirs) == 0 {
		return "", fmt.Errorf("tafsir response contained no entries")
	}
	return payload.Tafsirs[0].Text, nil
}

func (c *Client) getData(ctx context.Context, endpoint, resource string, dest any) error {
	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed with status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	if env.Code != http.StatusOK {
		return fmt.Errorf("%s failed with code %d: %s", resource, env.Code, env.Status)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w", resource, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
