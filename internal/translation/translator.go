// Package translation implements the machine-translation stage, converting
// transcript segments into the target language.
package translation

import (
	"context"
	"log/slog"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/services"
	"dubber/internal/services/translate"
	"dubber/internal/stage"
)

// Engine translates a batch of texts between languages.
type Engine interface {
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Translator fills TranslatedText on every stored segment.
type Translator struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	engine Engine
}

// NewTranslator constructs the translation stage handler from configuration.
func NewTranslator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Translator {
	engine := translate.NewService(cfg.Tools.Translate, cfg.Translation.Model)
	return NewTranslatorWithEngine(cfg, store, logger, engine)
}

// NewTranslatorWithEngine allows injecting the translation engine (used in tests).
func NewTranslatorWithEngine(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine Engine) *Translator {
	return &Translator{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "translation"),
		engine: engine,
	}
}

func (t *Translator) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)

	normalized, err := language.Normalize(job.TargetLang)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translating", "normalize language",
			"Target language code not recognized", err)
	}
	job.TargetLang = normalized

	job.SetProgress("Translation", "Preparing translation")
	logger.Info("translation prepared",
		logging.String("source", job.SourceLang),
		logging.String("target", job.TargetLang),
		logging.String("model", t.cfg.Translation.Model))
	return nil
}

func (t *Translator) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)

	segments, err := t.store.SegmentsForJob(ctx, job.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "translating", "load segments",
			"Could not load transcript segments", err)
	}
	if len(segments) == 0 {
		logger.Warn("no segments to translate")
		job.SetProgress("Translation", "Nothing to translate")
		return nil
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.SourceText
	}

	job.SetProgress("Translation", "Translating transcript")
	translated, err := t.engine.Translate(ctx, texts, job.SourceLang, job.TargetLang)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "translating", "run translator",
			"Machine translation failed", err)
	}

	empty := 0
	for i := range segments {
		segments[i].TranslatedText = translated[i]
		if translated[i] == "" && segments[i].SourceText != "" {
			empty++
		}
	}
	if empty > 0 {
		// Empty translations are tolerated; synthesis skips them and the
		// timeline keeps the original gap.
		logger.Warn("translator returned empty text for some segments",
			logging.Int("empty", empty))
	}

	if err := segment.WriteSnapshot(segments, job.SnapshotPath()); err != nil {
		return services.Wrap(services.ErrTransient, "translating", "write snapshot",
			"Could not persist the translated snapshot", err)
	}
	if err := t.store.ReplaceSegments(ctx, job.ID, segments); err != nil {
		return services.Wrap(services.ErrTransient, "translating", "store segments",
			"Could not persist translated segments", err)
	}

	job.SetProgress("Translation", "Translation ready")
	logger.Info("translation completed", logging.Int("segments", len(segments)))
	return nil
}

func (t *Translator) HealthCheck(ctx context.Context) stage.Health {
	const name = "translation"
	if ok, detail := deps.CheckBinary(t.cfg.Tools.Translate); !ok {
		return stage.Unhealthy(name, detail)
	}
	return stage.Healthy(name)
}
