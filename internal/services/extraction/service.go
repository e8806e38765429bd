package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

type Service struct {
	qr      ports.QRDecoder
	vision  []ports.VisionAnalyzer
	timeout time.Duration
	log     *slog.Logger
}

// New returns an extractor. qr may be nil. Vision providers are tried in
// order, each bounded by timeout when it is positive.
func New(qr ports.QRDecoder, timeout time.Duration, log *slog.Logger, vision ...ports.VisionAnalyzer) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{qr: qr, vision: vision, timeout: timeout, log: log}
}

// Extract builds the entity bag for img. Only an undecodable image is an
// error; provider failures leave the affected fields empty.
func (s *Service) Extract(ctx context.Context, img domain.Image) (domain.EntityBag, error) {
	decoded, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return domain.EntityBag{}, fmt.Errorf("decode image %q: %w", img.Filename, err)
	}
	s.log.Debug("image decoded", "file", img.Filename, "format", format, "bounds", decoded.Bounds().String())

	payloads := s.decodeQR(decoded)
	vr := s.analyze(ctx, img)

	bag := domain.EntityBag{
		RawText:     strings.TrimSpace(vr.FullText + " " + vr.Description),
		ImageType:   vr.ImageType,
		Description: vr.Description,
		QRCodes:     payloads,
	}
	c := ExtractContacts(bag.RawText)
	bag.PhoneNumbers = append(c.Phones, vr.PhoneNumbers...)
	bag.Emails = append(c.Emails, vr.Emails...)
	bag.URLs = append(c.URLs, vr.URLs...)
	bag.Domains = append(c.Domains, vr.Domains...)
	bag.Handles = c.Handles
	bag.OrganizationNames = vr.OrganizationNames
	bag.Locations = vr.Locations
	if vr.UPIID != "" {
		bag.Emails = append(bag.Emails, vr.UPIID)
	}
	if vr.AccountNumber != "" {
		bag.AccountNumbers = append(bag.AccountNumbers, vr.AccountNumber)
	}

	q := ClassifyQR(payloads)
	bag.URLs = append(bag.URLs, q.URLs...)
	bag.Domains = append(bag.Domains, q.Domains...)
	bag.Emails = append(bag.Emails, q.Emails...)
	bag.QRData = q.Data

	bag.Normalize()
	return bag, nil
}

func (s *Service) decodeQR(img image.Image) []string {
	if s.qr == nil {
		return nil
	}
	payloads, err := s.qr.Decode(img)
	if err != nil {
		s.log.Debug("qr decode failed", "error", err)
		return nil
	}
	return payloads
}

// analyze returns the first successful vision result, or an empty one.
func (s *Service) analyze(ctx context.Context, img domain.Image) ports.VisionResult {
	for _, a := range s.vision {
		res, err := s.analyzeOne(ctx, a, img)
		if err != nil {
			s.log.Warn("vision provider failed", "provider", a.Name(), "error", err)
			continue
		}
		s.log.Debug("vision provider succeeded", "provider", a.Name())
		return res
	}
	return ports.VisionResult{}
}

func (s *Service) analyzeOne(ctx context.Context, a ports.VisionAnalyzer, img domain.Image) (ports.VisionResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return a.Analyze(ctx, img)
}
