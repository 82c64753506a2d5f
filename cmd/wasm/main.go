//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/kittclouds/kittjournal/internal/app"
	"github.com/kittclouds/kittjournal/internal/config"
	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/logging"
	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/response"
	"github.com/kittclouds/kittjournal/pkg/settings"
)

// Version info
const Version = "0.1.0"

// Global state
var kj *app.App

func main() {
	fmt.Println("[KittJournal] WASM Ready v" + Version)

	js.Global().Set("KittJournal", js.ValueOf(map[string]interface{}{
		"version": js.FuncOf(getVersion),
		"init":    js.FuncOf(initialize),
		// Journal
		"addEntry":      js.FuncOf(addEntry),
		"getAllEntries": js.FuncOf(getAllEntries),
		"listEntries":   js.FuncOf(listEntries),
		"getEntry":      js.FuncOf(getEntry),
		"updateEntry":   js.FuncOf(updateEntry),
		"deleteEntry":   js.FuncOf(deleteEntry),
		"isPending":     js.FuncOf(isPending),
		// Core library
		"getAllCores": js.FuncOf(getAllCores),
		"listCores":   js.FuncOf(listCores),
		// Analysis (Promise-returning)
		"analyzeEntry":   js.FuncOf(jsAnalyzeEntry),
		"analyzePending": js.FuncOf(jsAnalyzePending),
		// Settings
		"getPreferences":         js.FuncOf(getPreferences),
		"updatePreference":       js.FuncOf(updatePreference),
		"getOnboardingCompleted": js.FuncOf(getOnboardingCompleted),
		"setOnboardingCompleted": js.FuncOf(setOnboardingCompleted),
		"getQuickSetupConfig":    js.FuncOf(getQuickSetupConfig),
		"saveQuickSetupConfig":   js.FuncOf(saveQuickSetupConfig),
		// Store Export/Import (OPFS sync)
		"storeExport": js.FuncOf(storeExport),
		"storeImport": js.FuncOf(storeImport),
	}))

	select {}
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initConfig is the JSON accepted by KittJournal.init.
type initConfig struct {
	Provider          string `json:"provider"`
	OpenRouterAPIKey  string `json:"openRouterApiKey"`
	OpenRouterModel   string `json:"openRouterModel"`
	GoogleAPIKey      string `json:"googleApiKey"`
	GoogleModel       string `json:"googleModel"`
	AnalysisTimeout   string `json:"analysisTimeout"`
	AnalysisWorkers   int    `json:"analysisWorkers"`
	ProductionLogging bool   `json:"productionLogging"`
}

// initialize opens an in-memory store and wires every service.
// Args: [configJSON string, optional]
func initialize(this js.Value, args []js.Value) interface{} {
	cfg := config.DefaultConfig()
	cfg.Store.DatabasePath = ":memory:"
	cfg.Store.PrefsBackend = config.PrefsSQLite

	var ic initConfig
	if len(args) > 0 && !args[0].IsUndefined() && !args[0].IsNull() {
		if err := json.Unmarshal([]byte(args[0].String()), &ic); err != nil {
			return errorResult("init: invalid config json: " + err.Error())
		}
	}
	if ic.Provider != "" {
		cfg.Provider.Name = ic.Provider
	}
	if ic.OpenRouterAPIKey != "" {
		cfg.Provider.OpenRouterAPIKey = ic.OpenRouterAPIKey
	}
	if ic.OpenRouterModel != "" {
		cfg.Provider.OpenRouterModel = ic.OpenRouterModel
	}
	if ic.GoogleAPIKey != "" {
		cfg.Provider.GoogleAPIKey = ic.GoogleAPIKey
	}
	if ic.GoogleModel != "" {
		cfg.Provider.GoogleModel = ic.GoogleModel
	}
	if ic.AnalysisTimeout != "" {
		cfg.Analysis.Timeout = ic.AnalysisTimeout
	}
	if ic.AnalysisWorkers > 0 {
		cfg.Analysis.Concurrency = ic.AnalysisWorkers
	}
	if ic.ProductionLogging {
		cfg.Logging.Mode = "production"
	}
	if err := cfg.Validate(); err != nil {
		return errorResult(err.Error())
	}

	log, err := logging.New(cfg.Logging.Mode)
	if err != nil {
		return errorResult("init: logger: " + err.Error())
	}

	if kj != nil {
		kj.Close()
	}
	kj, err = app.New(context.Background(), cfg, log)
	if err != nil {
		return errorFrom("init", err)
	}

	return jsonResult(map[string]interface{}{
		"success":  true,
		"provider": kj.Analysis.Provider().Name(),
	})
}

// =============================================================================
// Journal API
// =============================================================================

// addEntry stores a new entry.
// Args: [entryJSON string]
// Returns: stored entry JSON
func addEntry(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("addEntry requires 1 arg: entryJSON")
	}
	if kj == nil {
		return errorResult("not initialized")
	}

	var entry store.JournalEntry
	if err := json.Unmarshal([]byte(args[0].String()), &entry); err != nil {
		return errorResult("invalid entry json: " + err.Error())
	}
	stored, err := kj.Journal.AddEntry(entry)
	if err != nil {
		return errorFrom("addEntry", err)
	}
	return jsonResult(stored)
}

// getAllEntries returns full entries in insertion order.
func getAllEntries(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	entries, err := kj.Journal.GetAllEntries()
	if err != nil {
		return errorFrom("getAllEntries", err)
	}
	return jsonResult(entries)
}

// listEntries returns slim rows for the journal list screen.
func listEntries(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	entries, err := kj.Journal.GetAllEntries()
	if err != nil {
		return errorFrom("listEntries", err)
	}
	return jsonResult(response.FromEntries(entries, kj.Journal.IsPending))
}

// getEntry returns one entry or null.
// Args: [id string]
func getEntry(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("getEntry requires 1 arg: id")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	entry, err := kj.Journal.GetEntry(args[0].String())
	if err != nil {
		return errorFrom("getEntry", err)
	}
	if entry == nil {
		return "null"
	}
	return jsonResult(entry)
}

// updateEntry edits content and moods.
// Args: [id string, content string, moodsJSON string]
func updateEntry(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("updateEntry requires 2+ args: id, content, [moodsJSON]")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	var moods []string
	if len(args) > 2 && !args[2].IsUndefined() && !args[2].IsNull() {
		if err := json.Unmarshal([]byte(args[2].String()), &moods); err != nil {
			return errorResult("invalid moods json: " + err.Error())
		}
	}
	entry, err := kj.Journal.UpdateEntry(args[0].String(), args[1].String(), moods)
	if err != nil {
		return errorFrom("updateEntry", err)
	}
	return jsonResult(entry)
}

// deleteEntry removes an entry. Missing ids are not an error.
// Args: [id string]
func deleteEntry(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("deleteEntry requires 1 arg: id")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	id := args[0].String()
	if err := kj.Journal.DeleteEntry(id); err != nil {
		return errorFrom("deleteEntry", err)
	}
	return successResult("deleted " + id)
}

// isPending reports whether an analysis is in flight for an entry.
// Args: [id string]
func isPending(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || kj == nil {
		return false
	}
	return kj.Journal.IsPending(args[0].String())
}

// =============================================================================
// Core library API
// =============================================================================

func getAllCores(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	all, err := kj.Cores.GetAllCores()
	if err != nil {
		return errorFrom("getAllCores", err)
	}
	return jsonResult(all)
}

func listCores(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	all, err := kj.Cores.GetAllCores()
	if err != nil {
		return errorFrom("listCores", err)
	}
	return jsonResult(response.FromCores(all))
}

// =============================================================================
// Analysis API
// =============================================================================

// makePromise creates a JS Promise and returns it along with resolve/reject functions.
func makePromise() (promise js.Value, resolve js.Value, reject js.Value) {
	var resolveFn, rejectFn js.Value
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolveFn = args[0]
		rejectFn = args[1]
		return nil
	})
	defer handler.Release()

	promise = js.Global().Get("Promise").New(handler)
	return promise, resolveFn, rejectFn
}

// rejectWith rejects with an Error carrying a .code property.
func rejectWith(reject js.Value, op string, err error) {
	jsErr := js.Global().Get("Error").New(fmt.Sprintf("%s: %v", op, err))
	jsErr.Set("code", errs.Code(err))
	reject.Invoke(jsErr)
}

// jsAnalyzeEntry analyzes one entry and applies it to the cores.
// Args: id (string)
// Returns: Promise<JSON> with the analysis, or null when the entry was
// deleted while the analysis ran
func jsAnalyzeEntry(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("analyzeEntry: id required")
	}
	id := args[0].String()

	promise, resolve, reject := makePromise()

	go func() {
		if kj == nil {
			reject.Invoke(js.Global().Get("Error").New("analyzeEntry: not initialized (call init first)"))
			return
		}

		ctx, cancel := kj.AnalysisContext(context.Background())
		defer cancel()

		result, err := kj.Analysis.AnalyzeEntry(ctx, id)
		if err != nil {
			rejectWith(reject, "analyzeEntry", err)
			return
		}
		if result == nil {
			resolve.Invoke("null")
			return
		}
		jsonBytes, _ := json.Marshal(result)
		resolve.Invoke(string(jsonBytes))
	}()

	return promise
}

// jsAnalyzePending analyzes every entry without an analysis.
// Args: concurrency (number, optional)
// Returns: Promise<JSON> with the batch report
func jsAnalyzePending(this js.Value, args []js.Value) interface{} {
	workers := 0
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		workers = args[0].Int()
	}

	promise, resolve, reject := makePromise()

	go func() {
		if kj == nil {
			reject.Invoke(js.Global().Get("Error").New("analyzePending: not initialized (call init first)"))
			return
		}
		if workers <= 0 {
			workers = kj.Cfg.Analysis.Concurrency
		}

		report, err := kj.Analysis.AnalyzePending(context.Background(), workers)
		if err != nil {
			rejectWith(reject, "analyzePending", err)
			return
		}
		jsonBytes, _ := json.Marshal(report)
		resolve.Invoke(string(jsonBytes))
	}()

	return promise
}

// =============================================================================
// Settings API
// =============================================================================

func getPreferences(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	p, err := kj.Settings.GetPreferences(context.Background())
	if err != nil {
		return errorFrom("getPreferences", err)
	}
	return jsonResult(p)
}

// updatePreference validates and stores one preference.
// Args: [key string, valueJSON string] e.g. ("theme_mode", "\"dark\"")
func updatePreference(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("updatePreference requires 2 args: key, valueJSON")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	key := args[0].String()

	var value any
	if err := json.Unmarshal([]byte(args[1].String()), &value); err != nil {
		// Bare strings are accepted as text.
		v, perr := settings.ParseValue(key, args[1].String())
		if perr != nil {
			return errorFrom("updatePreference", perr)
		}
		value = v
	}
	if key == settings.KeyQuickSetupConfig {
		value = json.RawMessage(args[1].String())
	}

	if err := kj.Settings.UpdatePreference(context.Background(), key, value); err != nil {
		return errorFrom("updatePreference", err)
	}
	return successResult("updated " + key)
}

func getOnboardingCompleted(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	done, err := kj.Settings.OnboardingCompleted(context.Background())
	if err != nil {
		return errorFrom("getOnboardingCompleted", err)
	}
	return jsonResult(map[string]interface{}{"onboardingCompleted": done})
}

// setOnboardingCompleted Args: [done bool]
func setOnboardingCompleted(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("setOnboardingCompleted requires 1 arg: done")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	if err := kj.Settings.SetOnboardingCompleted(context.Background(), args[0].Truthy()); err != nil {
		return errorFrom("setOnboardingCompleted", err)
	}
	return successResult("onboarding updated")
}

func getQuickSetupConfig(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	raw, err := kj.Settings.QuickSetupConfig(context.Background())
	if err != nil {
		return errorFrom("getQuickSetupConfig", err)
	}
	if raw == nil {
		return "null"
	}
	return string(raw)
}

// saveQuickSetupConfig Args: [configJSON string]
func saveQuickSetupConfig(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("saveQuickSetupConfig requires 1 arg: configJSON")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	if err := kj.Settings.SaveQuickSetupConfig(context.Background(), json.RawMessage(args[0].String())); err != nil {
		return errorFrom("saveQuickSetupConfig", err)
	}
	return successResult("quick setup saved")
}

// =============================================================================
// Store Export/Import
// =============================================================================

// storeExport returns the whole database as a JSON snapshot string.
func storeExport(this js.Value, args []js.Value) interface{} {
	if kj == nil {
		return errorResult("not initialized")
	}
	data, err := kj.Store.Export()
	if err != nil {
		return errorFrom("storeExport", err)
	}
	return string(data)
}

// storeImport replaces the database with a snapshot.
// Args: [snapshotJSON string]
func storeImport(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("storeImport requires 1 arg: snapshotJSON")
	}
	if kj == nil {
		return errorResult("not initialized")
	}
	if err := kj.Import([]byte(args[0].String())); err != nil {
		return errorFrom("storeImport", err)
	}
	return successResult("imported")
}

// =============================================================================
// Result helpers
// =============================================================================

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create error result with a taxonomy code
func errorFrom(op string, err error) interface{} {
	result := map[string]interface{}{
		"error": op + ": " + err.Error(),
		"code":  errs.Code(err),
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

func jsonResult(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(jsonBytes)
}
