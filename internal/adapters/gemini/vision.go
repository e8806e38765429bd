package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

//go:embed vision_schema.json
var visionSchemaJSON string

var visionSchema = jsonschema.MustCompileString("vision_schema.json", visionSchemaJSON)

// VisionPrompt asks for the strict JSON document described by
// vision_schema.json.
const VisionPrompt = "You are a forensic analyst examining a disaster relief or donation-related image.\n" +
	"CRITICAL: Extract ALL visible text from the image, including:\n" +
	"- Organization names (in any language: English, Hindi, regional languages)\n" +
	"- Location information (cities, states, addresses)\n" +
	"- Contact details (phone numbers, emails, UPI IDs, bank details)\n" +
	"- QR code content (if visible or decoded)\n" +
	"- Account numbers, IFSC codes, bank names\n" +
	"- Any other relevant information\n\n" +
	"Return a STRICT JSON object with this exact structure:\n" +
	"{\n" +
	"  \"full_text\": \"... ALL visible text from the image, preserving line breaks and structure ...\",\n" +
	"  \"phone_numbers\": [\"+91-1234567890\", \"...\"],\n" +
	"  \"emails\": [\"example@ngo.org\", \"...\"],\n" +
	"  \"urls\": [\"https://example.org/donate\", \"...\"],\n" +
	"  \"domains\": [\"example.org\", \"...\"],\n" +
	"  \"organization_names\": [\"Full Organization Name\", \"...\"],\n" +
	"  \"locations\": [\"City Name\", \"State Name\", \"...\"],\n" +
	"  \"bank_details\": {\"bank_name\": \"...\", \"account_number\": \"...\", \"ifsc_code\": \"...\", \"upi_id\": \"...\"},\n" +
	"  \"image_type\": \"help_flyer\" | \"donation_request\" | \"news_post\" | \"social_post\" | \"other\",\n" +
	"  \"description\": \"Detailed description of what this image is about, including purpose, organization, and key information.\"\n" +
	"}\n" +
	"Rules:\n" +
	"- Extract text in ALL languages present\n" +
	"- Include organization names exactly as they appear\n" +
	"- Respond with VALID JSON only, no markdown, no comments.\n" +
	"- If a field is unknown, return an empty string \"\" or empty array [] or empty object {}.\n" +
	"- Phone numbers should include country code if visible.\n"

// Vision analyzes flyers with a multimodal Gemini model.
type Vision struct {
	*Client
}

// Analyze implements ports.VisionAnalyzer.
func (v Vision) Analyze(ctx context.Context, img domain.Image) (ports.VisionResult, error) {
	mime := img.ContentType
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(img.Data)
	}
	raw, err := v.generate(ctx, "", []*genai.Part{
		genai.NewPartFromBytes(img.Data, mime),
		genai.NewPartFromText(VisionPrompt),
	}, 0)
	if err != nil {
		return ports.VisionResult{}, err
	}
	res, err := ParseVision(raw)
	if err != nil {
		v.logger.WarnContext(ctx, "vision response is not valid JSON, using it as description", "error", err)
		return ports.VisionResult{Description: raw}, nil
	}
	return res, nil
}

type visionDoc struct {
	FullText          string   `json:"full_text"`
	Description       string   `json:"description"`
	ImageType         string   `json:"image_type"`
	PhoneNumbers      []string `json:"phone_numbers"`
	Emails            []string `json:"emails"`
	URLs              []string `json:"urls"`
	Domains           []string `json:"domains"`
	OrganizationNames []string `json:"organization_names"`
	Locations         []string `json:"locations"`
	BankDetails       struct {
		AccountNumber string `json:"account_number"`
		UPIID         string `json:"upi_id"`
	} `json:"bank_details"`
}

// ParseVision validates a model response against the vision schema and
// maps it to a VisionResult. Markdown code fences around the document are
// ignored.
func ParseVision(raw string) (ports.VisionResult, error) {
	raw = stripFence(raw)
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return ports.VisionResult{}, fmt.Errorf("decode vision json: %w", err)
	}
	if err := visionSchema.Validate(generic); err != nil {
		return ports.VisionResult{}, fmt.Errorf("validate vision json: %w", err)
	}
	var doc visionDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return ports.VisionResult{}, fmt.Errorf("decode vision json: %w", err)
	}

	desc := strings.TrimSpace(doc.Description)
	if desc == "" {
		desc = strings.TrimSpace(doc.FullText)
	}
	imageType := doc.ImageType
	if imageType == "" {
		imageType = domain.ImageTypeOther
	}
	return ports.VisionResult{
		FullText:          doc.FullText,
		Description:       desc,
		ImageType:         imageType,
		PhoneNumbers:      doc.PhoneNumbers,
		Emails:            doc.Emails,
		URLs:              doc.URLs,
		Domains:           doc.Domains,
		OrganizationNames: doc.OrganizationNames,
		Locations:         doc.Locations,
		UPIID:             doc.BankDetails.UPIID,
		AccountNumber:     doc.BankDetails.AccountNumber,
	}, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
