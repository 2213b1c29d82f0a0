package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/llm"
	"github.com/bfindeiss/handwerker-app/internal/models"
	"github.com/bfindeiss/handwerker-app/internal/pricing"
)

type fakeExtractor struct {
	fn    func(transcript string) (*models.InvoiceContext, error)
	calls int
}

func (f *fakeExtractor) ExtractInvoice(_ context.Context, transcript string) (*models.InvoiceContext, error) {
	f.calls++
	return f.fn(transcript)
}

type fakeSpeech struct{}

func (fakeSpeech) Synthesize(context.Context, string) ([]byte, error) {
	return []byte("audio"), nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []*models.InvoiceContext
}

func (f *fakeDispatcher) Dispatch(_ context.Context, inv *models.InvoiceContext) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, inv)
	return map[string]any{"status": "success"}, nil
}

type fakeArchiver struct{ dir string }

func (f fakeArchiver) Store(context.Context, []byte, string, *models.InvoiceContext) (string, error) {
	return f.dir, nil
}

type fakeSettings struct{ saved map[string]string }

func (f *fakeSettings) Save(key, value string) error {
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = value
	return nil
}

type inlineRunner struct{ names []string }

func (r *inlineRunner) Submit(name string, run func(ctx context.Context)) {
	r.names = append(r.names, name)
	run(context.Background())
}

func testPricer() *pricing.Engine {
	rates := pricing.Rates{
		LaborMeister: 80, LaborGeselle: 60, LaborDefault: 50,
		TravelPerKm: 1.0, VATRate: 0.19,
	}
	return pricing.NewEngine(rates, pricing.NewMemoryRegistry(nil), zap.NewNop())
}

func newTestEngine(extractor Extractor, dispatcher Dispatcher, settings SettingsWriter) *Engine {
	return NewEngine(
		NewMemoryStore(), extractor, testPricer(), fakeSpeech{},
		dispatcher, fakeArchiver{dir: "data/test"}, settings, zap.NewNop(),
	)
}

func paintingJob(transcript string) (*models.InvoiceContext, error) {
	inv := models.NewInvoiceContext()
	inv.Customer.Name = "Hans Meier"
	inv.Service.Description = "Wände streichen"
	inv.Items = []models.InvoiceItem{
		{Description: "Streichen", Category: models.CategoryLabor, Quantity: 6, Unit: "h", WorkerRole: "Geselle"},
	}
	return inv, nil
}

func TestHandleTurnFullConversation(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	engine := newTestEngine(&fakeExtractor{fn: paintingJob}, dispatcher, &fakeSettings{})

	resp, err := engine.HandleTurn(context.Background(),
		"s1", "Für Hans Meier wurden die Wände gestrichen, 6 Stunden vom Gesellen, 25 km Anfahrt.", nil)
	require.NoError(t, err)

	assert.False(t, resp.Done)
	assert.Equal(t, StatusAwaitingConfirmation, resp.Status)
	assert.Contains(t, resp.Summary, "Hans Meier")
	assert.Contains(t, resp.Summary, "Anfahrt")
	assert.NotEmpty(t, resp.Audio)
	assert.Equal(t, "data/test", resp.LogDir)
	assert.Equal(t, "data/test/invoice.pdf", resp.PDFPath)
	assert.Equal(t, "/data/test/invoice.pdf", resp.PDFURL)
	// 6h * 60 + 25km * 1 = 385 net
	assert.Equal(t, 385.0, resp.Invoice.Amount.Net)
	assert.Empty(t, dispatcher.dispatched)

	resp, err = engine.HandleTurn(context.Background(), "s1", "Ja, passt.", nil)
	require.NoError(t, err)

	assert.True(t, resp.Done)
	assert.Equal(t, StatusConfirmed, resp.Status)
	assert.Contains(t, resp.Message, "Rechnung bestätigt")
	assert.Contains(t, resp.Message, "Hans Meier")
	require.Len(t, dispatcher.dispatched, 1)

	// The session is terminal: further turns do not re-dispatch.
	resp, err = engine.HandleTurn(context.Background(), "s1", "Noch etwas dazu.", nil)
	require.NoError(t, err)
	assert.True(t, resp.Done)
	assert.Contains(t, resp.Message, "bereits bestätigt")
	assert.Len(t, dispatcher.dispatched, 1)
}

func TestHandleTurnNonAffirmativeInvalidatesSnapshot(t *testing.T) {
	extractor := &fakeExtractor{fn: paintingJob}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	_, err := engine.HandleTurn(context.Background(), "s1", "Für Hans Meier wurden die Wände gestrichen.", nil)
	require.NoError(t, err)

	resp, err := engine.HandleTurn(context.Background(), "s1", "Nein, es waren nur 4 Stunden.", nil)
	require.NoError(t, err)

	assert.False(t, resp.Done)
	// The reply was treated as new input, not as a confirmation.
	assert.Equal(t, 2, extractor.calls)
	assert.Equal(t, StatusAwaitingConfirmation, resp.Status)
}

func TestHandleTurnRefusalWithAffirmativeWordDoesNotDispatch(t *testing.T) {
	extractor := &fakeExtractor{fn: paintingJob}
	dispatcher := &fakeDispatcher{}
	engine := newTestEngine(extractor, dispatcher, &fakeSettings{})

	_, err := engine.HandleTurn(context.Background(), "s1", "Für Hans Meier wurden die Wände gestrichen.", nil)
	require.NoError(t, err)

	// "passt" alone is an affirmative keyword; the negation has to win.
	resp, err := engine.HandleTurn(context.Background(), "s1", "Nein, das passt nicht.", nil)
	require.NoError(t, err)

	assert.False(t, resp.Done)
	assert.NotEqual(t, StatusConfirmed, resp.Status)
	assert.Empty(t, dispatcher.dispatched)
	assert.Equal(t, 2, extractor.calls)
}

func TestHandleTurnCorrectionBypassesExtractor(t *testing.T) {
	extractor := &fakeExtractor{fn: paintingJob}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	_, err := engine.HandleTurn(context.Background(), "s1", "Für Hans Meier wurden die Wände gestrichen.", nil)
	require.NoError(t, err)
	require.Equal(t, 1, extractor.calls)

	resp, err := engine.HandleTurn(context.Background(), "s1", "Position 1 sind 4 Stunden", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, extractor.calls)
	assert.False(t, resp.Done)
	assert.Equal(t, StatusCollecting, resp.Status)
	assert.Contains(t, resp.Message, "Position 1 auf 4 Stunden gesetzt.")
	assert.Contains(t, resp.Message, "Eine neue Zusammenfassung folgt.")
	assert.Equal(t, 4.0, resp.Invoice.Items[0].Quantity)
	// Re-priced after the edit.
	assert.Equal(t, 4.0*60, resp.Invoice.Items[0].Total())
}

func TestHandleTurnCorrectionUnknownPosition(t *testing.T) {
	extractor := &fakeExtractor{fn: paintingJob}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	resp, err := engine.HandleTurn(context.Background(), "s1", "Position 7 löschen", nil)
	require.NoError(t, err)

	assert.Contains(t, resp.Message, "Position 7 nicht gefunden.")
	assert.NotContains(t, resp.Message, "Zusammenfassung")
	assert.Equal(t, 0, extractor.calls)
}

func TestHandleTurnClarificationQuestionsAskedOnce(t *testing.T) {
	extractor := &fakeExtractor{fn: func(string) (*models.InvoiceContext, error) {
		inv := models.NewInvoiceContext()
		inv.Customer.Name = "Hans Meier"
		inv.Service.Description = "Badsanierung"
		inv.Items = []models.InvoiceItem{
			{Description: "Arbeitszeit", Category: models.CategoryLabor, Quantity: 5, Unit: "h"},
		}
		return inv, nil
	}}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	resp, err := engine.HandleTurn(context.Background(), "s1",
		"Für Hans Meier haben Meister und Geselle gearbeitet.", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusClarificationNeeded, resp.Status)
	require.Len(t, resp.ClarificationQuestions, 2)
	assert.Contains(t, resp.ClarificationQuestions[0], "Meister")
	assert.Contains(t, resp.ClarificationQuestions[1], "Geselle")

	// The identical questions are never repeated; the turn falls through to
	// the summary instead.
	resp, err = engine.HandleTurn(context.Background(), "s1", "Wie gesagt, Meister und Geselle.", nil)
	require.NoError(t, err)
	assert.Empty(t, resp.ClarificationQuestions)
	assert.Equal(t, StatusAwaitingConfirmation, resp.Status)
}

func TestHandleTurnMissingItemsQuestion(t *testing.T) {
	extractor := &fakeExtractor{fn: func(string) (*models.InvoiceContext, error) {
		inv := models.NewInvoiceContext()
		inv.Customer.Name = "Hans Meier"
		return inv, nil
	}}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	resp, err := engine.HandleTurn(context.Background(), "s1", "Hans Meier war der Kunde.", nil)
	require.NoError(t, err)

	// The synthesized labor estimate and travel line always exist, so the
	// placeholder-filled invoice is complete enough to summarize.
	assert.Equal(t, StatusAwaitingConfirmation, resp.Status)
	assert.NotEmpty(t, resp.Summary)
}

func TestHandleTurnParseErrorAsksToRephrase(t *testing.T) {
	extractor := &fakeExtractor{fn: func(string) (*models.InvoiceContext, error) {
		return nil, fmt.Errorf("%w: line_items", llm.ErrMissingFields)
	}}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	resp, err := engine.HandleTurn(context.Background(), "s1", "Guten Tag.", nil)
	require.NoError(t, err)

	assert.False(t, resp.Done)
	assert.Contains(t, resp.Question, "Bitte beschreiben Sie den Auftrag erneut.")
}

func TestHandleTurnBackendErrorPropagates(t *testing.T) {
	extractor := &fakeExtractor{fn: func(string) (*models.InvoiceContext, error) {
		return nil, fmt.Errorf("customer pass: %w", llm.ErrBackendUnavailable)
	}}
	engine := newTestEngine(extractor, &fakeDispatcher{}, &fakeSettings{})

	_, err := engine.HandleTurn(context.Background(), "s1", "Guten Tag.", nil)
	assert.ErrorIs(t, err, llm.ErrBackendUnavailable)
}

func TestHandleTurnCompanyNameCommand(t *testing.T) {
	extractor := &fakeExtractor{fn: paintingJob}
	settings := &fakeSettings{}
	engine := newTestEngine(extractor, &fakeDispatcher{}, settings)

	resp, err := engine.HandleTurn(context.Background(), "s1", "Speichere meinen Firmennamen Muster GmbH.", nil)
	require.NoError(t, err)

	assert.Equal(t, "Firmenname Muster GmbH gespeichert.", resp.Message)
	assert.Equal(t, "Muster GmbH", settings.saved["COMPANY_NAME"])
	assert.Equal(t, 0, extractor.calls)
}

func TestFinalizeRendersConfirmationInBackground(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	runner := &inlineRunner{}
	engine := newTestEngine(&fakeExtractor{fn: paintingJob}, dispatcher, &fakeSettings{}).
		WithBackground(runner)

	_, err := engine.HandleTurn(context.Background(), "s1", "Für Hans Meier wurden die Wände gestrichen.", nil)
	require.NoError(t, err)
	_, err = engine.HandleTurn(context.Background(), "s1", "Ja.", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"confirmation-audio"}, runner.names)
}

func TestIsAffirmative(t *testing.T) {
	assert.True(t, isAffirmative("Ja, passt."))
	assert.True(t, isAffirmative("Das ist korrekt!"))
	assert.True(t, isAffirmative("In Ordnung"))
	assert.False(t, isAffirmative("Nein, ändere bitte Position 1"))
	assert.False(t, isAffirmative("Nein, das passt nicht."))
	assert.False(t, isAffirmative("Das stimmt so nicht."))
	assert.False(t, isAffirmative("Ja, aber der Preis ist falsch."))
	assert.False(t, isAffirmative("Jawohl"))
}
