package clinic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestGetReturnsDefaultsWhenUnset(t *testing.T) {
	store := newStore(t)

	settings, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.HolidayMode)
	assert.Equal(t, "09:00", settings.OpenTime)
	assert.Equal(t, "21:00", settings.CloseTime)
	assert.True(t, settings.AllowsWeekday(time.Sunday))
	assert.False(t, settings.AllowsWeekday(time.Friday))
}

func TestSetRoundTrips(t *testing.T) {
	store := newStore(t)

	in := &Settings{
		HolidayMode: true,
		OpenTime:    "10:00",
		CloseTime:   "18:00",
		WorkDays:    []string{"monday", "wednesday"},
	}
	require.NoError(t, store.Set(context.Background(), in))

	out, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, out.HolidayMode)
	assert.Equal(t, "10:00", out.OpenTime)
	assert.Equal(t, []string{"monday", "wednesday"}, out.WorkDays)
}

func TestAllowsWeekdayIsCaseInsensitive(t *testing.T) {
	settings := &Settings{WorkDays: []string{"Monday", " TUESDAY "}}
	assert.True(t, settings.AllowsWeekday(time.Monday))
	assert.True(t, settings.AllowsWeekday(time.Tuesday))
	assert.False(t, settings.AllowsWeekday(time.Sunday))
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []Settings{
		{OpenTime: "9am", CloseTime: "21:00"},
		{OpenTime: "09:00", CloseTime: "late"},
		{OpenTime: "09:00", CloseTime: "21:00", WorkDays: []string{"someday"}},
	}
	for _, c := range cases {
		assert.Error(t, c.Validate(), "settings %+v", c)
	}
}

type recordingInvalidator struct {
	collections []string
}

func (r *recordingInvalidator) Invalidate(collection string) {
	r.collections = append(r.collections, collection)
}

func TestHandlerPutPersistsAndInvalidates(t *testing.T) {
	store := newStore(t)
	feed := &recordingInvalidator{}
	handler := NewHandler(HandlerConfig{Store: store, Feed: feed})

	body := `{"holiday_mode":true,"open_time":"08:00","close_time":"16:00","work_days":["sunday"]}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Put(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, saved.HolidayMode)
	assert.Equal(t, "08:00", saved.OpenTime)
	assert.Equal(t, []string{"settings"}, feed.collections)
}

func TestHandlerPutRejectsInvalidHours(t *testing.T) {
	handler := NewHandler(HandlerConfig{Store: newStore(t)})

	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"open_time":"bad"}`))
	rec := httptest.NewRecorder()
	handler.Put(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetServesDefaults(t *testing.T) {
	handler := NewHandler(HandlerConfig{Store: newStore(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"holiday_mode":false`)
}
