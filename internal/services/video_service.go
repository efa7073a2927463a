package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

const (
	vimeoAcceptHeader   = "application/vnd.vimeo.*+json;version=3.4"
	defaultVideoPrivacy = "nobody"
	maxProviderBody     = 1 << 20
)

var (
	videoIDPattern      = regexp.MustCompile(`/videos/(\d+)`)
	numericVideoPattern = regexp.MustCompile(`^\d+$`)
)

type videoService struct {
	cfg        config.VimeoConfig
	httpClient *http.Client
	logger     *slog.Logger
	validator  *validator.Validator
}

// NewVideoService builds the Vimeo adapter. A nil httpClient gets one with the configured timeout.
func NewVideoService(cfg config.VimeoConfig, httpClient *http.Client, logger *slog.Logger, validator *validator.Validator) VideoService {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.vimeo.com"
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &videoService{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With("client", "vimeo"),
		validator:  validator,
	}
}

// --- Vimeo wire types ---

type vimeoCreateVideo struct {
	Upload      vimeoUploadRequest `json:"upload"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Privacy     vimeoPrivacy       `json:"privacy"`
}

type vimeoUploadRequest struct {
	Approach    string `json:"approach"`
	Size        int64  `json:"size"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type vimeoPrivacy struct {
	View string `json:"view"`
}

type vimeoVideo struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Duration    int          `json:"duration"`
	Privacy     vimeoPrivacy `json:"privacy"`
	Status      string       `json:"status"`
	CreatedTime *time.Time   `json:"created_time"`
	ReleaseTime *time.Time   `json:"release_time"`
	Upload      struct {
		UploadLink string `json:"upload_link"`
		Form       string `json:"form"`
		Approach   string `json:"approach"`
	} `json:"upload"`
	Pictures struct {
		Sizes []VideoThumbnail `json:"sizes"`
	} `json:"pictures"`
}

type vimeoError struct {
	Error            string `json:"error"`
	DeveloperMessage string `json:"developer_message"`
}

// ChooseUploadApproach picks resumable tus uploads for large files
func ChooseUploadApproach(fileSize, threshold int64, requested string) string {
	if requested == UploadApproachTus || fileSize >= threshold {
		return UploadApproachTus
	}
	return UploadApproachPost
}

// ParseVideoID extracts the numeric id from a "/videos/<id>" URI
func ParseVideoID(uri string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CreateUpload opens an upload session; the client then uploads straight to Vimeo
func (s *videoService) CreateUpload(ctx context.Context, req *CreateUploadRequest) (*UploadSession, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	approach := ChooseUploadApproach(req.FileSize, s.cfg.TusThresholdBytes, req.Approach)
	privacy := req.Privacy
	if privacy == "" {
		privacy = defaultVideoPrivacy
	}

	body := vimeoCreateVideo{
		Upload: vimeoUploadRequest{
			Approach: approach,
			Size:     req.FileSize,
		},
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Privacy:     vimeoPrivacy{View: privacy},
	}
	if approach == UploadApproachPost {
		body.Upload.RedirectURL = req.RedirectURL
	}

	s.logger.Info("Creating video upload", "name", body.Name, "size", req.FileSize, "approach", approach)

	var video vimeoVideo
	if err := s.do(ctx, http.MethodPost, "/me/videos", body, &video); err != nil {
		return nil, err
	}

	videoID, ok := ParseVideoID(video.URI)
	if !ok {
		return nil, NewVideoProviderError(http.StatusBadGateway, fmt.Sprintf("could not read video id from uri %q", video.URI))
	}
	if video.Upload.UploadLink == "" {
		return nil, NewVideoProviderError(http.StatusBadGateway, "provider response has no upload link")
	}

	s.logger.Info("Video upload created", "video_id", videoID, "approach", approach)
	return &UploadSession{
		UploadLink: video.Upload.UploadLink,
		UploadForm: video.Upload.Form,
		VideoURI:   video.URI,
		VideoID:    videoID,
		Approach:   approach,
	}, nil
}

func (s *videoService) GetMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	videoID = strings.TrimSpace(videoID)
	if !numericVideoPattern.MatchString(videoID) {
		return nil, badRequest("invalid video id %q", videoID)
	}

	var video vimeoVideo
	if err := s.do(ctx, http.MethodGet, "/videos/"+videoID, nil, &video); err != nil {
		return nil, err
	}

	id, ok := ParseVideoID(video.URI)
	if !ok {
		id = videoID
	}
	thumbnails := video.Pictures.Sizes
	if thumbnails == nil {
		thumbnails = []VideoThumbnail{}
	}
	return &VideoMetadata{
		ID:          id,
		Title:       video.Name,
		Description: video.Description,
		Duration:    video.Duration,
		Thumbnails:  thumbnails,
		Privacy:     video.Privacy.View,
		Status:      video.Status,
		CreatedAt:   video.CreatedTime,
		UploadedAt:  video.ReleaseTime,
	}, nil
}

// do sends one request to the provider and decodes a 2xx JSON body into out
func (s *videoService) do(ctx context.Context, method, path string, in, out interface{}) error {
	if s.cfg.AccessToken == "" {
		return NewVideoProviderError(http.StatusServiceUnavailable, "video provider access token is not configured")
	}

	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode provider request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.APIURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Accept", vimeoAcceptHeader)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Video provider request failed", "method", method, "path", path, "error", err)
		return NewVideoProviderError(http.StatusBadGateway, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return NewVideoProviderError(http.StatusBadGateway, fmt.Sprintf("failed to read provider response: %v", err))
	}

	s.logger.Debug("Video provider call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(raw))
		var ve vimeoError
		if json.Unmarshal(raw, &ve) == nil && ve.Error != "" {
			message = ve.Error
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		s.logger.Warn("Video provider returned an error", "path", path, "status", resp.StatusCode, "error", message)
		return NewVideoProviderError(resp.StatusCode, message)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewVideoProviderError(http.StatusBadGateway, fmt.Sprintf("invalid provider response: %v", err))
	}
	return nil
}
