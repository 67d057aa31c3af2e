package docgen

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gcloudforge/docgen/pkg/convert"
	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
	"github.com/gcloudforge/docgen/pkg/logger"
	"github.com/gcloudforge/docgen/pkg/storage"
)

const (
	defaultFrameworkVersion = "14"
	defaultLot              = "2"
	defaultContainer        = "sharepoint"
)

// ServiceDescriptionRequest carries everything needed to produce one
// service description document.
type ServiceDescriptionRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Features    []string       `json:"features"`
	Benefits    []string       `json:"benefits"`
	Blocks      []ContentBlock `json:"service_definition"`

	// ServiceName defaults to Title; it drives the artifact key.
	ServiceName      string `json:"service_name"`
	FrameworkVersion string `json:"framework_version"`
	Lot              string `json:"lot"`

	// Draft artifacts carry a _draft filename suffix and skip PDF
	// conversion. Publishing a final supersedes the draft.
	Draft bool `json:"draft"`

	// Publish places the artifact under the framework taxonomy. When
	// false the artifact lands under a standalone generated/ key.
	Publish bool `json:"publish"`
}

// PricingDocumentRequest produces a pricing document: the template is
// retitled and placeholder-resolved but no content sections are rebuilt.
type PricingDocumentRequest struct {
	ServiceName      string `json:"service_name"`
	FrameworkVersion string `json:"framework_version"`
	Lot              string `json:"lot"`
	Draft            bool   `json:"draft"`
	Publish          bool   `json:"publish"`
}

// GenerateResult reports where the artifacts were written.
type GenerateResult struct {
	WordKey  string `json:"word_key"`
	PDFKey   string `json:"pdf_key,omitempty"`
	Filename string `json:"filename"`
}

// Generator wires the composition pipeline to its collaborators. Converter
// is optional; without it Word artifacts are still produced, just no PDFs.
type Generator struct {
	log       logger.Logger
	store     storage.Backend
	templates *TemplateLoader
	converter convert.Converter
	fetcher   *ImageFetcher

	// Containers named in conversion requests.
	wordContainer   string
	outputContainer string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithConverter enables PDF conversion.
func WithConverter(c convert.Converter) GeneratorOption {
	return func(g *Generator) { g.converter = c }
}

// WithImageFetcher enables remote image embedding.
func WithImageFetcher(f *ImageFetcher) GeneratorOption {
	return func(g *Generator) { g.fetcher = f }
}

// WithContainers names the storage containers passed to the converter.
func WithContainers(word, output string) GeneratorOption {
	return func(g *Generator) {
		g.wordContainer = word
		g.outputContainer = output
	}
}

// NewGenerator builds a generator over a template loader and an artifact
// store.
func NewGenerator(log logger.Logger, store storage.Backend, templates *TemplateLoader, opts ...GeneratorOption) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	g := &Generator{
		log:             log,
		store:           store,
		templates:       templates,
		wordContainer:   defaultContainer,
		outputContainer: defaultContainer,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateServiceDescription runs the full composition pipeline and
// publishes the resulting document.
func (g *Generator) GenerateServiceDescription(ctx context.Context, req ServiceDescriptionRequest) (*GenerateResult, error) {
	applyServiceDefaults(&req)
	log := g.log.With("service", req.ServiceName, "draft", req.Draft)

	pkg, err := g.openTemplate(ctx)
	if err != nil {
		return nil, err
	}
	body := pkg.Document.Body

	composer := NewComposer(pkg, log, g.fetcher)
	composer.ReplaceTitle(req.Title)
	composer.RemoveSections()
	about := composer.ExtractAbout()

	tocIdx := RefreshTOC(body, headingContents)
	if tocIdx == -1 {
		log.Debug("no contents heading, appending content at end")
		tocIdx = len(body.Blocks) - 1
	}
	if err := composer.InsertContent(ctx, tocIdx, req.Title, req.Description, req.Features, req.Benefits, req.Blocks); err != nil {
		return nil, err
	}
	composer.AppendClosing(about)

	if err := pkg.EnableUpdateFields(); err != nil {
		return nil, NewComposeError("settings update", err)
	}
	RebuildTOC(body, headingContents)

	placeholders := ServiceNamePlaceholders(req.Title)
	placeholders.ApplyToTree(body)
	placeholders.PatchSerialized(pkg)

	data, err := pkg.Write()
	if err != nil {
		return nil, NewComposeError("serialization", err)
	}

	key := storage.ArtifactKey{
		ServiceName:      req.ServiceName,
		DocType:          storage.DocTypeServiceDescription,
		FrameworkVersion: req.FrameworkVersion,
		Lot:              req.Lot,
		Draft:            req.Draft,
	}
	return g.publish(ctx, log, data, key, req.Publish, req.Title)
}

// GeneratePricingDocument retitles the pricing template and publishes it.
func (g *Generator) GeneratePricingDocument(ctx context.Context, req PricingDocumentRequest) (*GenerateResult, error) {
	if req.FrameworkVersion == "" {
		req.FrameworkVersion = defaultFrameworkVersion
	}
	if req.Lot == "" {
		req.Lot = defaultLot
	}
	log := g.log.With("service", req.ServiceName, "doc", "pricing", "draft", req.Draft)

	pkg, err := g.openTemplate(ctx)
	if err != nil {
		return nil, err
	}

	retitlePricing(pkg.Document.Body, req.ServiceName)
	if err := pkg.EnableUpdateFields(); err != nil {
		return nil, NewComposeError("settings update", err)
	}

	placeholders := PlaceholderMap{
		"SERVICE TITLE":    req.ServiceName,
		"SERVICE NAME":     req.ServiceName,
		"{{SERVICE_NAME}}": req.ServiceName,
	}
	placeholders.ApplyToTree(pkg.Document.Body)
	placeholders.PatchSerialized(pkg)

	data, err := pkg.Write()
	if err != nil {
		return nil, NewComposeError("serialization", err)
	}

	key := storage.ArtifactKey{
		ServiceName:      req.ServiceName,
		DocType:          storage.DocTypePricingDocument,
		FrameworkVersion: req.FrameworkVersion,
		Lot:              req.Lot,
		Draft:            req.Draft,
	}
	return g.publish(ctx, log, data, key, req.Publish, req.ServiceName)
}

func (g *Generator) openTemplate(ctx context.Context) (*ooxml.Package, error) {
	data, source, err := g.templates.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	pkg, err := ooxml.Open(data)
	if err != nil {
		return nil, NewTemplateMalformedError(source, err)
	}
	g.log.Debug("template resolved", "source", source)
	return pkg, nil
}

// publish writes the Word artifact, supersedes stale variants, and kicks
// off PDF conversion for published finals. A failed write is fatal; a
// failed conversion degrades to a Word-only result.
func (g *Generator) publish(ctx context.Context, log logger.Logger, data []byte, key storage.ArtifactKey, taxonomy bool, title string) (*GenerateResult, error) {
	wordKey := fallbackKey(title)
	filename := key.Filename("docx")
	if taxonomy {
		wordKey = key.Key("docx")
	}

	if err := g.store.Put(ctx, wordKey, data); err != nil {
		return nil, NewStorageWriteError(wordKey, err)
	}
	log.Info("artifact written", "key", wordKey, "bytes", len(data))

	if taxonomy {
		if err := key.Supersede(ctx, g.store, "docx"); err != nil {
			log.Warn("failed to supersede stale artifacts", "error", err)
		}
	}

	result := &GenerateResult{WordKey: wordKey, Filename: filename}
	if taxonomy && !key.Draft && g.converter != nil {
		pdfKey := strings.TrimSuffix(wordKey, ".docx") + ".pdf"
		err := g.converter.Convert(ctx, convert.Request{
			WordKey:         wordKey,
			WordContainer:   g.wordContainer,
			OutputContainer: g.outputContainer,
			PDFKey:          pdfKey,
		})
		if err != nil {
			log.Warn("pdf conversion failed, word artifact kept", "error", err)
		} else {
			result.PDFKey = pdfKey
			log.Info("pdf conversion requested", "key", pdfKey)
		}
	}
	return result, nil
}

func applyServiceDefaults(req *ServiceDescriptionRequest) {
	if req.ServiceName == "" {
		req.ServiceName = req.Title
	}
	if req.FrameworkVersion == "" {
		req.FrameworkVersion = defaultFrameworkVersion
	}
	if req.Lot == "" {
		req.Lot = defaultLot
	}
}

// fallbackKey addresses artifacts generated outside the framework
// taxonomy.
func fallbackKey(title string) string {
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	safe := sb.String()
	if len(safe) > 50 {
		safe = safe[:50]
	}
	return "generated/" + safe + "_" + uuid.NewString()[:8] + ".docx"
}

// retitlePricing appends the service name to the existing top-level
// heading, keeping its 24pt bold appearance. Templates without a top-level
// heading fall back to placeholder replacement.
func retitlePricing(body *ooxml.Body, serviceName string) {
	for _, blk := range body.Blocks {
		p, ok := blk.(*ooxml.Paragraph)
		if !ok || p.StyleTag() != "Heading1" {
			continue
		}
		text := p.Text()
		if !strings.Contains(text, serviceName) {
			text = strings.TrimSpace(text)
			if text != "" {
				text += " - " + serviceName
			} else {
				text = serviceName
			}
		}
		p.Children = []ooxml.ParagraphChild{
			ooxml.NewTextRun(text, &ooxml.RunProperties{Bold: true, SizeHalfPts: titleSizeHalfPts}),
		}
		return
	}
}
