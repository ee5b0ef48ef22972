package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lidercheck/internal/apperr"
)

// ImageLoader resolves an image reference to its raw bytes.
type ImageLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// FetchTimeout bounds one image download when URLLoader has no client.
const FetchTimeout = 10 * time.Second

var defaultClient = &http.Client{Timeout: FetchTimeout}

// URLLoader reads data URLs inline and fetches http(s) URLs.
type URLLoader struct {
	Client   *http.Client
	MaxBytes int64
}

// Load implements ImageLoader.
func (l URLLoader) Load(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		i := strings.Index(ref, ",")
		if i < 0 {
			return nil, errors.New("malformed data url")
		}
		return base64.StdEncoding.DecodeString(ref[i+1:])
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	default:
		// Bare base64 as stored by older clients.
		return base64.StdEncoding.DecodeString(ref)
	}
}

func (l URLLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = defaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// decodeImage sniffs the content type so WebP photos from phones decode too.
func decodeImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty image")
	}
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(http.DetectContentType(head), "webp") {
		return webp.Decode(bytes.NewReader(raw))
	}
	return imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
}

// fitPNG scales raw down to fit w x h, keeping the aspect ratio, and
// re-encodes it as PNG.
func fitPNG(raw []byte, w, h int) ([]byte, error) {
	img, err := decodeImage(raw)
	if err != nil {
		return nil, err
	}
	img = imaging.Fit(img, w, h, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type imageJob struct {
	label  string
	ref    string
	at     Ref
	width  int
	height int
}

// prepareImages loads and scales every job concurrently. A job that fails
// is logged as partial data and left out; order of the rest is kept.
func (a *Assembler) prepareImages(ctx context.Context, jobs []imageJob) ([]Image, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	results := make([]*Image, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := a.Loader.Load(gctx, job.ref)
			if err == nil {
				var png []byte
				png, err = fitPNG(raw, job.width, job.height)
				if err == nil {
					results[i] = &Image{At: job.at, PNG: png}
					return nil
				}
			}
			a.Logger.Warn("image skipped",
				zap.String("image", job.label),
				zap.Error(apperr.PartialData(job.label, err)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Image, 0, len(jobs))
	for _, img := range results {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out, nil
}
