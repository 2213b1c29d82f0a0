package llm

import (
	"encoding/json"
	"fmt"
)

// systemInstruction is shared by all reconciliation passes.
const systemInstruction = "Du bist ein strukturierter JSON-Extraktor für Handwerker-Rechnungen. " +
	"Nutze die deterministisch erkannten Kandidaten als primäre Quelle; der Text dient nur zum Gegenprüfen. " +
	"Erfinde niemals fehlende Fakten. Geldbeträge immer als ganzzahlige Cent-Werte, Stunden als Gleitkommazahl. " +
	"Unsicherheiten gehören in das Feld notes. Antworte ausschließlich mit JSON, das exakt dem Schema entspricht."

// Pass tasks. One pass per fact domain; they are independent and may run
// concurrently.
const (
	customerPassTask = "Extrahiere den Kundennamen und die Kundenadresse (Straße, PLZ, Ort)."
	materialPassTask = "Extrahiere alle Materialpositionen (type immer \"material\") mit Menge, Einheit und Einzelpreis in Cent."
	laborPassTask    = "Extrahiere alle Arbeitszeitpositionen (type immer \"labor\"). Ordne jeder Position die Rolle \"meister\" oder \"geselle\" zu."
	travelPassTask   = "Extrahiere Fahrtkosten und sonstige Positionen (type immer \"travel\") mit Kilometerangabe als Menge."
)

// buildPassPrompt assembles one pass request: domain task, the strict JSON
// schema for the answer, the transcript and the serialized candidates.
func buildPassPrompt(task string, schema map[string]any, transcript, candidatesJSON string) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		schemaJSON = []byte("{}")
	}
	return fmt.Sprintf(
		"%s\n\nAntwortschema:\n%s\n\nTranskript:\n%q\n\nErkannte Kandidaten:\n%s\n\nNur JSON antworten.",
		task, schemaJSON, transcript, candidatesJSON)
}

// buildRepairPrompt asks the model to fix its own invalid payload against the
// same schema.
func buildRepairPrompt(invalidPayload string, schema map[string]any) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		schemaJSON = []byte("{}")
	}
	return fmt.Sprintf(
		"Die folgende Antwort ist kein gültiges JSON gemäß Schema. Korrigiere sie und antworte nur mit dem reparierten JSON.\n\nSchema:\n%s\n\nUngültige Antwort:\n%s",
		schemaJSON, invalidPayload)
}

// buildSinglePassPrompt is the legacy one-shot prompt asking for the full
// invoice document at once.
func buildSinglePassPrompt(transcript string) string {
	return fmt.Sprintf(
		"Du bist ein KI-Assistent für Handwerker. Extrahiere aus folgendem Text "+
			"eine strukturierte JSON-Rechnung gemäß folgendem Schema:\n\n"+
			"{\n"+
			"  \"type\": \"InvoiceContext\",\n"+
			"  \"customer\": { \"name\": str },\n"+
			"  \"service\": { \"description\": str, \"materialIncluded\": bool },\n"+
			"  \"items\": [ { \"description\": str, \"category\": str, \"quantity\": float, \"unit\": str, \"unit_price\": float } ],\n"+
			"  \"amount\": { \"total\": float, \"currency\": \"EUR\" }\n"+
			"}\n\n"+
			"Text: %q\nNur JSON antworten.", transcript)
}
