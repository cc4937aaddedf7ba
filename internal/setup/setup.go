package setup

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/facilform-dev/facilform/internal/apiclient"
	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/config"
	"github.com/facilform-dev/facilform/internal/form"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/geo/agent"
	"github.com/facilform-dev/facilform/internal/handler"
	"github.com/facilform-dev/facilform/internal/session"
	"github.com/facilform-dev/facilform/internal/textproc"
	"github.com/facilform-dev/facilform/internal/validation"
)

const (
	tmplPath         = "templates"
	evictionInterval = 10 * time.Minute
)

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Config     *config.Config
	Handler    *handler.Handler
	Tokens     session.TokenService
	Registry   *session.Registry
	Probe      *geo.Probe
	CancelFunc context.CancelFunc
}

// SetupDependencies initializes everything the service needs.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	ctx, cancel := context.WithCancel(context.Background())

	previews, err := attachments.NewPreviewStore(cfg.Public.PreviewDir, cfg.Public.PreviewMaxDim)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize preview store: %w", err)
	}

	store := apiclient.New(cfg.Public.StoreBaseURL)
	engine := validation.NewEngine()

	deviceAgent := agent.New(cfg.Public.DeviceAgentURL)
	probe := geo.NewProbe(deviceAgent, deviceAgent)
	probe.Run(ctx)

	factory := formFactory(cfg, previews, engine, store)
	registry := session.NewRegistry(cfg.Public.SessionTTL, factory)
	registry.StartEviction(ctx, evictionInterval)

	tokens := session.NewTokenService(cfg.SessionKey(), cfg.Public.SessionTTL)

	templates, err := loadTemplates(tmplPath)
	if err != nil {
		cancel()
		return nil, err
	}

	h := handler.New(templates, cfg.Public, registry, probe, previews, textproc.New())

	return &Dependencies{
		Config:     cfg,
		Handler:    h,
		Tokens:     tokens,
		Registry:   registry,
		Probe:      probe,
		CancelFunc: cancel,
	}, nil
}

// formFactory wires a fresh form instance: leaf components, error slots
// and the controller, with the session form itself serving as the
// notification surface and navigator.
func formFactory(cfg *config.Config, previews *attachments.PreviewStore, engine *validation.Engine, store *apiclient.APIClient) session.Factory {
	return func(f *session.Form) (*geo.Selector, *attachments.Manager, *form.ErrorState, *form.Controller) {
		selector := geo.NewSelector()
		manager := attachments.NewManager(previews, cfg.Public.AllowedImageMimeTypes, cfg.Public.MaxAttachmentSizeBytes)
		errState := form.NewErrorState()
		controller := form.NewController(engine, selector, manager, errState, store, f, f, cfg.Public.ListingPath)
		return selector, manager, errState, controller
	}
}

func loadTemplates(dir string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates dir: %w", err)
	}

	const baseTemplate = "base.html"
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".html" || f.Name() == baseTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).ParseFiles(
			path.Join(dir, baseTemplate),
			path.Join(dir, f.Name()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", f.Name(), err)
		}
		templates[f.Name()] = tmpl
	}
	return templates, nil
}
