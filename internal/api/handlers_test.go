package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battlesim/internal/tactics"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewServer(nil, nil).Routes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path+"?userID=tester", &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStateBeforeStart(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap tactics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.False(t, snap.GameStarted)
	assert.Empty(t, snap.Units)
	assert.Equal(t, 15, snap.Grid.Width)
	assert.Equal(t, 10, snap.Grid.Height)
}

func TestStartBattleSeedsUnits(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/start-battle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/state", nil)
	var snap tactics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.GameStarted)
	require.Len(t, snap.Units, 4)
	assert.Equal(t, "Hero", snap.Units[0].Name)
}

func TestCreateAndGetUnit(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Scout", "x": 5, "y": 5, "team": "attacking", "type": "archer",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode(t, rec)
	unit := created["unit"].(map[string]any)
	id := int(unit["id"].(float64))
	assert.Equal(t, float64(16), unit["maxHp"], "archer preset")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/unit?userID=tester&id=%d", id), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)["unit"].(map[string]any)
	assert.Equal(t, "Scout", got["name"])

	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/unit?userID=tester&id=999", nil))
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestCreateUnitValidation(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Lost", "x": 99, "y": 99, "team": "attacking", "type": "mage",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Spy", "x": 1, "y": 1, "team": "neutral", "type": "mage",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveUnitFlow(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Runner", "x": 5, "y": 5, "team": "attacking", "type": "warrior",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	unit := decode(t, rec)["unit"].(map[string]any)
	id := int(unit["id"].(float64))

	// Any in-bounds adjacent tile costs at most 3, within warrior movement.
	rec = doJSON(t, mux, http.MethodPost, "/api/move-unit", map[string]any{
		"unit_id": id, "x": 5, "y": 6,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/move-unit", map[string]any{
		"unit_id": id, "x": 14, "y": 9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "far corner exceeds movement")

	rec = doJSON(t, mux, http.MethodPost, "/api/move-unit", map[string]any{
		"unit_id": 999, "x": 1, "y": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMovementRange(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Walker", "x": 7, "y": 5, "team": "attacking", "type": "knight",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	unit := decode(t, rec)["unit"].(map[string]any)
	id := int(unit["id"].(float64))

	rec = doJSON(t, mux, http.MethodPost, "/api/movement-range", map[string]any{"unit_id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	tiles := body["reachable_tiles"].([]any)
	assert.NotEmpty(t, tiles)
	for _, raw := range tiles {
		tile := raw.(map[string]any)
		assert.False(t, tile["x"].(float64) == 7 && tile["y"].(float64) == 5, "own tile filtered out")
	}
}

func TestAttackFlow(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Hero", "x": 5, "y": 5, "team": "attacking", "type": "warrior",
	})
	attacker := int(decode(t, rec)["unit"].(map[string]any)["id"].(float64))

	rec = doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Mage", "x": 6, "y": 5, "team": "defending", "type": "mage",
	})
	target := int(decode(t, rec)["unit"].(map[string]any)["id"].(float64))

	rec = doJSON(t, mux, http.MethodPost, "/api/attack", map[string]any{
		"attacker_id": attacker, "target_id": target,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Greater(t, body["damage"].(float64), 0.0)

	// Same-team follow-up is rejected without touching state.
	rec = doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Ally", "x": 4, "y": 5, "team": "attacking", "type": "archer",
	})
	ally := int(decode(t, rec)["unit"].(map[string]any)["id"].(float64))
	rec = doJSON(t, mux, http.MethodPost, "/api/attack", map[string]any{
		"attacker_id": attacker, "target_id": ally,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttackPreview(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Sniper", "x": 2, "y": 2, "team": "attacking", "type": "archer",
	})
	attacker := int(decode(t, rec)["unit"].(map[string]any)["id"].(float64))

	rec = doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Mark", "x": 4, "y": 2, "team": "defending", "type": "knight",
	})
	target := int(decode(t, rec)["unit"].(map[string]any)["id"].(float64))

	rec = doJSON(t, mux, http.MethodPost, "/api/attack-preview", map[string]any{
		"attacker_id": attacker, "target_id": target,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["distance"])
	assert.InDelta(t, 0.85, body["hit_chance"].(float64), 1e-9, "archer keeps accuracy at range 2")
	assert.InDelta(t, 0.05, body["crit_chance"].(float64), 1e-9)
}

func TestValidTargetsAndUnitTypes(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Hero", "x": 5, "y": 5, "team": "attacking", "type": "warrior",
	})
	attacker := int(decode(t, rec)["unit"].(map[string]any)["id"].(float64))
	doJSON(t, mux, http.MethodPost, "/api/create-unit", map[string]any{
		"name": "Near", "x": 5, "y": 4, "team": "defending", "type": "mage",
	})

	rec = doJSON(t, mux, http.MethodPost, "/api/valid-targets", map[string]any{"unit_id": attacker})
	require.Equal(t, http.StatusOK, rec.Code)
	targets := decode(t, rec)["targets"].([]any)
	require.Len(t, targets, 1)
	assert.Equal(t, "Near", targets[0].(map[string]any)["name"])

	rec = doJSON(t, mux, http.MethodGet, "/api/unit-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	types := decode(t, rec)["types"].([]any)
	assert.Len(t, types, 4)
}

func TestEndTurnAndReset(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/start-battle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/end-turn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "defending", body["current_turn"])
	assert.Equal(t, float64(1), body["turn_count"])

	rec = doJSON(t, mux, http.MethodPost, "/api/reset-game", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/state", nil)
	var snap tactics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.False(t, snap.GameStarted)
	assert.Empty(t, snap.Units)
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/attack", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	rec = doJSON(t, mux, http.MethodPost, "/api/state", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
