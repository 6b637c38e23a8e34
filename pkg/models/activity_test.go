package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityKind_Valid(t *testing.T) {
	assert.True(t, KindWindowFocus.Valid())
	assert.True(t, KindFileEdit.Valid())
	assert.False(t, ActivityKind("keyboard").Valid())
	assert.False(t, ActivityKind("").Valid())
}

func TestNewActivityRecord_Timestamps(t *testing.T) {
	before := time.Now().UnixMilli()
	rec := NewActivityRecord(KindWindowFocus)
	after := time.Now().UnixMilli()

	assert.Equal(t, KindWindowFocus, rec.Kind)
	assert.GreaterOrEqual(t, rec.CreatedAtEpoch, before)
	assert.LessOrEqual(t, rec.CreatedAtEpoch, after)

	parsed, err := time.Parse(time.RFC3339, rec.CreatedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.UnixMilli(rec.CreatedAtEpoch), parsed, time.Second)
}

func TestActivityRecord_AppIdentity(t *testing.T) {
	rec := NewActivityRecord(KindWindowFocus)
	rec.AppName = NullString("firefox")
	assert.Equal(t, "firefox", rec.AppIdentity())

	rec = NewActivityRecord(KindFileEdit)
	assert.Equal(t, string(KindFileEdit), rec.AppIdentity(),
		"records without an app fall back to their kind")
}

func TestActivityRecord_MarshalJSON_FlattensNulls(t *testing.T) {
	rec := NewActivityRecord(KindWindowFocus)
	rec.ID = 7
	rec.AppName = NullString("code")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, float64(7), out["id"])
	assert.Equal(t, "code", out["app_name"])
	assert.Equal(t, "window_focus", out["kind"])

	// Unset optional fields are omitted rather than rendered as objects.
	assert.NotContains(t, out, "file_path")
}

func TestNullString(t *testing.T) {
	assert.False(t, NullString("").Valid)
	ns := NullString("x")
	assert.True(t, ns.Valid)
	assert.Equal(t, "x", ns.String)
}
