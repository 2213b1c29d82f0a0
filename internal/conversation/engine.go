package conversation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/extract"
	"github.com/bfindeiss/handwerker-app/internal/invoice"
	"github.com/bfindeiss/handwerker-app/internal/llm"
	"github.com/bfindeiss/handwerker-app/internal/models"
	"github.com/bfindeiss/handwerker-app/internal/pricing"
)

// Extractor produces a partial invoice from the accumulated transcript.
type Extractor interface {
	ExtractInvoice(ctx context.Context, transcript string) (*models.InvoiceContext, error)
}

// Speech renders outbound messages as audio.
type Speech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Dispatcher hands a confirmed invoice to the billing system.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv *models.InvoiceContext) (map[string]any, error)
}

// Archiver persists the turn artifacts and returns the artifact directory.
type Archiver interface {
	Store(ctx context.Context, audio []byte, transcript string, inv *models.InvoiceContext) (string, error)
}

// SettingsWriter persists configuration values changed by voice command.
type SettingsWriter interface {
	Save(key, value string) error
}

// TurnResponse is the payload returned for one conversational turn.
type TurnResponse struct {
	Done       bool         `json:"done"`
	Status     Status       `json:"status"`
	Message    string       `json:"message,omitempty"`
	Question   string       `json:"question,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Audio      string       `json:"audio,omitempty"`
	Invoice    *models.InvoiceContext `json:"invoice,omitempty"`
	Transcript string       `json:"transcript"`
	LogDir     string       `json:"log_dir,omitempty"`
	PDFPath    string       `json:"pdf_path,omitempty"`
	PDFURL     string       `json:"pdf_url,omitempty"`

	ClarificationQuestions []string `json:"clarification_questions,omitempty"`
}

// affirmatives finalize a pending confirmation. A negation word anywhere in
// the turn wins over any affirmative keyword: "Nein, das passt nicht." is a
// refusal, not a confirmation.
var affirmatives = []string{
	"ja", "passt", "bestätigt", "bestätigen", "korrekt", "in ordnung",
	"einverstanden", "klingt gut", "genau", "stimmt",
}

var negations = []string{"nein", "nicht", "falsch", "kein", "keine"}

var (
	meisterMentionPattern = regexp.MustCompile(`(?i)meister`)
	geselleMentionPattern = regexp.MustCompile(`(?i)gesell`)
	wordPattern           = regexp.MustCompile(`[a-zäöüß]+`)
)

// BackgroundRunner defers non-blocking post-processing work.
type BackgroundRunner interface {
	Submit(name string, run func(ctx context.Context))
}

// Engine orchestrates the per-turn flow.
type Engine struct {
	store      SessionStore
	extractor  Extractor
	pricer     *pricing.Engine
	speech     Speech
	dispatcher Dispatcher
	archiver   Archiver
	settings   SettingsWriter
	background BackgroundRunner
	logger     *zap.Logger
}

// NewEngine wires the conversation engine.
func NewEngine(
	store SessionStore,
	extractor Extractor,
	pricer *pricing.Engine,
	speech Speech,
	dispatcher Dispatcher,
	archiver Archiver,
	settings SettingsWriter,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:      store,
		extractor:  extractor,
		pricer:     pricer,
		speech:     speech,
		dispatcher: dispatcher,
		archiver:   archiver,
		settings:   settings,
		logger:     logger,
	}
}

// WithBackground enables fire-and-forget post-processing, e.g. rendering the
// spoken confirmation to the artifact directory after dispatch.
func (e *Engine) WithBackground(runner BackgroundRunner) *Engine {
	e.background = runner
	return e
}

// HandleTurn processes one user turn for a session. audio may be nil for
// text-only turns; it is only used for artifact storage.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, text string, audio []byte) (*TurnResponse, error) {
	session, release := e.store.Acquire(sessionID)
	defer release()

	if session.Status == StatusConfirmed {
		return e.respond(ctx, &TurnResponse{
			Done:       true,
			Status:     StatusConfirmed,
			Message:    "Die Rechnung ist bereits bestätigt.",
			Invoice:    session.Invoice,
			Transcript: session.Transcript,
		}), nil
	}

	// Configuration commands are handled entirely outside the invoice flow.
	if company, ok := parseCompanyName(text); ok {
		return e.handleCompanyName(ctx, session, company), nil
	}

	// Explicit corrections are deterministic and never go through the
	// annotator. Any applied change invalidates a pending confirmation.
	if feedback, changed := applyCorrections(session.Invoice, text); len(feedback) > 0 {
		if changed {
			if err := e.pricer.Apply(session.Invoice); err != nil {
				return nil, err
			}
			session.Pending = nil
			session.PendingSummary = ""
			session.Status = StatusCollecting
			feedback = append(feedback, "Eine neue Zusammenfassung folgt.")
		}
		return e.respond(ctx, &TurnResponse{
			Done:       false,
			Status:     session.Status,
			Message:    strings.Join(feedback, " "),
			Invoice:    session.Invoice,
			Transcript: session.Transcript,
		}), nil
	}

	allowOverwrite := false
	if session.Status == StatusAwaitingConfirmation && session.Pending != nil {
		if isAffirmative(text) {
			return e.finalize(ctx, session, audio)
		}
		// Anything but a yes means the user is correcting; the snapshot is
		// stale and the next merge may overwrite confirmed fields.
		session.Pending = nil
		session.PendingSummary = ""
		session.Status = StatusCollecting
		allowOverwrite = true
	}

	session.Transcript = strings.TrimSpace(session.Transcript + " " + strings.TrimSpace(text))

	incoming, err := e.extractor.ExtractInvoice(ctx, session.Transcript)
	if err != nil {
		return e.handleExtractionError(ctx, session, err)
	}

	merged := invoice.Merge(session.Invoice, incoming, session.Transcript, allowOverwrite)

	candidates := extract.Candidates(session.Transcript)
	inferWorkerRoles(merged, text, session.Transcript)
	supplementLabor(merged, candidates.Labor)
	ensureTravelItem(merged, candidates.Travel)
	fillDefaultFields(merged)
	if !merged.HasItemWithCategory(models.CategoryLabor) {
		merged.Items = append(merged.Items, invoice.EstimateLaborItem(merged.Service.Description))
	}

	if err := e.pricer.Apply(merged); err != nil {
		return nil, err
	}
	session.Invoice = merged

	logDir := e.persistArtifacts(ctx, session, audio)

	if questions := e.clarificationQuestions(session, candidates); len(questions) > 0 {
		session.Status = StatusClarificationNeeded
		resp := &TurnResponse{
			Done:                   false,
			Status:                 StatusClarificationNeeded,
			Question:               strings.Join(questions, "\n"),
			ClarificationQuestions: questions,
			Invoice:                merged,
			Transcript:             session.Transcript,
		}
		withArtifacts(resp, logDir)
		return e.respond(ctx, resp), nil
	}
	if session.Status == StatusClarificationNeeded {
		session.Status = StatusCollecting
	}

	if question := missingFieldQuestion(merged); question != "" {
		resp := &TurnResponse{
			Done:       false,
			Status:     StatusCollecting,
			Question:   question,
			Invoice:    merged,
			Transcript: session.Transcript,
		}
		withArtifacts(resp, logDir)
		return e.respond(ctx, resp), nil
	}

	// Complete: snapshot, summarize, wait for the user's confirmation.
	summary := invoice.BuildSummary(merged)
	session.Pending = merged.Clone()
	session.PendingSummary = summary
	session.Status = StatusAwaitingConfirmation

	resp := &TurnResponse{
		Done:       false,
		Status:     StatusAwaitingConfirmation,
		Summary:    summary,
		Invoice:    merged,
		Transcript: session.Transcript,
	}
	withArtifacts(resp, logDir)
	return e.respond(ctx, resp), nil
}

func (e *Engine) handleCompanyName(ctx context.Context, session *Session, company string) *TurnResponse {
	message := "Kein Firmenname erkannt."
	if company != "" {
		if err := e.settings.Save("COMPANY_NAME", company); err != nil {
			e.logger.Error("Failed to save company name", zap.Error(err))
			message = "Firmenname konnte nicht gespeichert werden."
		} else {
			message = fmt.Sprintf("Firmenname %s gespeichert.", company)
		}
	}
	return e.respond(ctx, &TurnResponse{
		Done:       false,
		Status:     session.Status,
		Message:    message,
		Transcript: session.Transcript,
	})
}

// finalize dispatches and persists the pending snapshot. The snapshot, not
// the possibly further-mutated working invoice, is what the user confirmed.
func (e *Engine) finalize(ctx context.Context, session *Session, audio []byte) (*TurnResponse, error) {
	final := session.Pending
	if _, err := e.dispatcher.Dispatch(ctx, final); err != nil {
		return nil, fmt.Errorf("dispatch invoice: %w", err)
	}

	session.Invoice = final
	session.Pending = nil
	session.Status = StatusConfirmed

	logDir := e.persistArtifacts(ctx, session, audio)

	message := fmt.Sprintf(
		"Rechnung bestätigt. Vorläufige Rechnung für %s über %.2f Euro erstellt.",
		final.Customer.Name, final.Amount.Total,
	)
	resp := &TurnResponse{
		Done:       true,
		Status:     StatusConfirmed,
		Message:    message,
		Invoice:    final,
		Transcript: session.Transcript,
	}
	withArtifacts(resp, logDir)

	// The spoken closing confirmation is written to the artifact directory
	// off the turn's critical path.
	if e.background != nil && e.speech != nil && logDir != "" {
		e.background.Submit("confirmation-audio", func(taskCtx context.Context) {
			audio, err := e.speech.Synthesize(taskCtx, message)
			if err != nil || len(audio) == 0 {
				e.logger.Warn("Confirmation audio rendering failed", zap.Error(err))
				return
			}
			if err := os.WriteFile(filepath.Join(logDir, "confirmation.mp3"), audio, 0o644); err != nil {
				e.logger.Warn("Failed to store confirmation audio", zap.Error(err))
			}
		})
	}

	return e.respond(ctx, resp), nil
}

// handleExtractionError keeps the conversation moving on parse-level errors
// but surfaces backend failures to the caller.
func (e *Engine) handleExtractionError(ctx context.Context, session *Session, err error) (*TurnResponse, error) {
	if !isParseError(err) {
		return nil, err
	}
	e.logger.Warn("Extraction failed, asking the user to rephrase",
		zap.String("session_id", session.ID),
		zap.Error(err))
	question := "Ich konnte die Angaben nicht verstehen. Bitte beschreiben Sie den Auftrag erneut."
	return e.respond(ctx, &TurnResponse{
		Done:       false,
		Status:     session.Status,
		Question:   question,
		Invoice:    session.Invoice,
		Transcript: session.Transcript,
	}), nil
}

// clarificationQuestions builds the ambiguity gate: labor without a role
// while several roles were mentioned, and material sums without a quantity.
// Identical questions are never asked twice in one session.
func (e *Engine) clarificationQuestions(session *Session, candidates models.Candidates) []string {
	roleless := false
	for _, item := range session.Invoice.Items {
		if item.Category == models.CategoryLabor && strings.TrimSpace(item.WorkerRole) == "" {
			roleless = true
			break
		}
	}

	var questions []string
	if roleless && meisterMentionPattern.MatchString(session.Transcript) && geselleMentionPattern.MatchString(session.Transcript) {
		if candidates.Labor.MeisterHours == nil {
			questions = append(questions, "Wie viele Stunden hat der Meister gearbeitet?")
		}
		if candidates.Labor.GeselleHours == nil {
			questions = append(questions, "Wie viele Stunden hat der Geselle gearbeitet?")
		}
		if hasUnresolvedMaterialSum(candidates.Materials) {
			questions = append(questions, "Wie setzt sich die Materialsumme zusammen?")
		}
	}

	fresh := questions[:0]
	for _, question := range questions {
		if session.AskedQuestions[question] {
			continue
		}
		session.AskedQuestions[question] = true
		fresh = append(fresh, question)
	}
	return fresh
}

func hasUnresolvedMaterialSum(materials []models.MaterialCandidate) bool {
	for _, candidate := range materials {
		if candidate.TotalPriceCents != nil && candidate.Quantity == nil {
			return true
		}
	}
	return false
}

// missingFieldQuestion checks the required fields. Placeholder-filled
// customer and service are complete enough to proceed to confirmation.
func missingFieldQuestion(inv *models.InvoiceContext) string {
	missing := models.MissingInvoiceFields(inv)
	var relevant []string
	for _, field := range missing {
		if field == "amount.total" {
			continue
		}
		relevant = append(relevant, field)
	}
	placeholderOnly := true
	for _, field := range relevant {
		if field != "customer.name" && field != "service.description" {
			placeholderOnly = false
		}
	}
	if len(relevant) == 0 || placeholderOnly {
		return ""
	}

	questionMap := map[string]string{
		"customer.name":       "Wie heißt der Kunde?",
		"service.description": "Welche Dienstleistung wurde erbracht?",
		"items":               "Welche Positionen wurden abgerechnet?",
	}
	var lines []string
	for _, field := range relevant {
		if question, ok := questionMap[field]; ok {
			lines = append(lines, question)
		} else {
			lines = append(lines, field)
		}
	}
	return strings.Join(lines, "\n")
}

// inferWorkerRoles assigns a role to role-less labor items when exactly one
// role is mentioned, preferring the current turn over the whole transcript.
func inferWorkerRoles(inv *models.InvoiceContext, turnText, transcript string) {
	role := singleMentionedRole(turnText)
	if role == "" {
		role = singleMentionedRole(transcript)
	}
	if role == "" {
		return
	}
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.Category == models.CategoryLabor && strings.TrimSpace(item.WorkerRole) == "" {
			item.WorkerRole = role
		}
	}
}

func singleMentionedRole(text string) string {
	meister := meisterMentionPattern.MatchString(text)
	geselle := geselleMentionPattern.MatchString(text)
	switch {
	case meister && !geselle:
		return "Meister"
	case geselle && !meister:
		return "Geselle"
	default:
		return ""
	}
}

// supplementLabor adds deterministic role hours the annotator missed.
func supplementLabor(inv *models.InvoiceContext, labor models.LaborCandidate) {
	addRoleHours(inv, "Meister", labor.MeisterHours)
	addRoleHours(inv, "Geselle", labor.GeselleHours)
}

func addRoleHours(inv *models.InvoiceContext, role string, hours *float64) {
	if hours == nil {
		return
	}
	for _, item := range inv.Items {
		if item.Category == models.CategoryLabor && strings.EqualFold(item.WorkerRole, role) {
			return
		}
	}
	inv.Items = append(inv.Items, models.InvoiceItem{
		Description: fmt.Sprintf("%s %s", models.LaborPlaceholderPrefix, role),
		Category:    models.CategoryLabor,
		Quantity:    *hours,
		Unit:        "h",
		WorkerRole:  role,
	})
}

// ensureTravelItem guarantees exactly the travel line every invoice carries,
// with the detected distance or zero.
func ensureTravelItem(inv *models.InvoiceContext, travel []models.TravelCandidate) {
	if inv.HasItemWithCategory(models.CategoryTravel) {
		return
	}
	kilometers := 0.0
	if len(travel) > 0 {
		kilometers = travel[0].Kilometers
	}
	inv.Items = append(inv.Items, models.InvoiceItem{
		Description: "Anfahrt",
		Category:    models.CategoryTravel,
		Quantity:    kilometers,
		Unit:        "km",
	})
}

func fillDefaultFields(inv *models.InvoiceContext) {
	if strings.TrimSpace(inv.Customer.Name) == "" {
		inv.Customer.Name = models.UnknownCustomerName
	}
	if strings.TrimSpace(inv.Service.Description) == "" {
		inv.Service.Description = models.UnknownServiceDescription
	}
}

// persistArtifacts writes the turn artifacts; failures are logged, not fatal
// for the turn.
func (e *Engine) persistArtifacts(ctx context.Context, session *Session, audio []byte) string {
	if e.archiver == nil {
		return ""
	}
	logDir, err := e.archiver.Store(ctx, audio, session.Transcript, session.Invoice)
	if err != nil {
		e.logger.Error("Failed to persist turn artifacts",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return ""
	}
	return logDir
}

func withArtifacts(resp *TurnResponse, logDir string) {
	if logDir == "" {
		return
	}
	resp.LogDir = logDir
	resp.PDFPath = filepath.Join(logDir, "invoice.pdf")
	resp.PDFURL = "/" + filepath.ToSlash(resp.PDFPath)
}

// respond synthesizes the spoken rendering of the payload's primary message.
func (e *Engine) respond(ctx context.Context, resp *TurnResponse) *TurnResponse {
	spoken := resp.Message
	if spoken == "" {
		spoken = resp.Question
	}
	if spoken == "" {
		spoken = resp.Summary
	}
	if spoken == "" || e.speech == nil {
		return resp
	}
	audio, err := e.speech.Synthesize(ctx, spoken)
	if err != nil {
		e.logger.Warn("Speech synthesis failed", zap.Error(err))
		return resp
	}
	resp.Audio = base64.StdEncoding.EncodeToString(audio)
	return resp
}

// isParseError distinguishes annotator payload problems, which the
// conversation absorbs with a rephrase question, from backend failures,
// which propagate to the caller.
func isParseError(err error) bool {
	return errors.Is(err, llm.ErrInvalidPassPayload) || errors.Is(err, llm.ErrMissingFields)
}

func isAffirmative(text string) bool {
	lowered := strings.ToLower(text)
	normalized := " " + strings.Join(wordPattern.FindAllString(lowered, -1), " ") + " "
	for _, keyword := range negations {
		if strings.Contains(normalized, " "+keyword+" ") {
			return false
		}
	}
	for _, keyword := range affirmatives {
		if strings.Contains(normalized, " "+keyword+" ") {
			return true
		}
	}
	return false
}
