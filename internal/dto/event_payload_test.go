package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rsvp-agenda/internal/models"
)

func TestEventPayloadSnakeCaseVariant(t *testing.T) {
	raw := `{"id":7,"title":" Kickoff ","description":"**bring laptops**","date":"2025-06-02",
		"start_time":"09:00:00","duration_minutes":90,"event_type_id":3,
		"event_type_name":"Meeting","event_type_color":"#2ecc71","location":"Lab","link":"https://meet.test/x"}`
	var p EventPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	e := p.ToModel()
	assert.Equal(t, int64(7), e.ID)
	assert.Equal(t, "Kickoff", e.Title)
	assert.Equal(t, "2025-06-02", e.Date)
	assert.Equal(t, "09:00:00", e.Start)
	require.NotNil(t, e.DurationMinutes)
	assert.Equal(t, 90, *e.DurationMinutes)
	require.NotNil(t, e.TypeID)
	assert.Equal(t, int64(3), *e.TypeID)
	assert.Equal(t, "Meeting", e.TypeLabel)
	assert.Equal(t, "#2ecc71", e.TypeColor)
	assert.Equal(t, "https://meet.test/x", e.Link)
}

func TestEventPayloadCamelCaseVariant(t *testing.T) {
	raw := `{"id":8,"title":"Social","date":"2025-06-03T00:00:00","start":"18:30",
		"durationMinutes":"45","typeId":4,"typeLabel":"Social","color":"#fff"}`
	var p EventPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	e := p.ToModel()
	assert.Equal(t, "2025-06-03", e.Date)
	assert.Equal(t, "18:30:00", e.Start)
	require.NotNil(t, e.DurationMinutes)
	assert.Equal(t, 45, *e.DurationMinutes)
	assert.Equal(t, "Social", e.TypeLabel)
	assert.Equal(t, "#fff", e.Color)
}

func TestEventPayloadDropsNonNumericDuration(t *testing.T) {
	raw := `{"id":9,"title":"x","date":"2025-06-04","start":"10:00","duration_minutes":"soon"}`
	var p EventPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Nil(t, p.ToModel().DurationMinutes)

	raw = `{"id":9,"title":"x","date":"2025-06-04","start":"10:00","duration_minutes":null}`
	p = EventPayload{}
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Nil(t, p.ToModel().DurationMinutes)
}

func TestEventPayloadLegacyTypeName(t *testing.T) {
	e := EventPayload{Title: "x", EventType: "Workshop"}.ToModel()
	assert.Equal(t, "Workshop", e.TypeLabel)
}

func TestResponsePayloadNormalises(t *testing.T) {
	raw := `[{"id":1,"event_id":5,"user_id":2,"status":"Yes","note":null},
		{"id":2,"eventId":5,"userId":3,"status":"bogus"}]`
	var payloads []EventResponsePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payloads))

	rows := ResponsesFromPayloads(payloads)
	require.Len(t, rows, 2)
	assert.Equal(t, models.StatusYes, rows[0].Status)
	assert.Equal(t, int64(3), rows[1].UserID)
	assert.Equal(t, int64(5), rows[1].EventID)
	assert.Equal(t, models.StatusUnset, rows[1].Status)
}

func TestSummaryPayloadDefaultsTotal(t *testing.T) {
	raw := `{"yes":3,"no":1,"maybe":2,"mentors_attending":1,"students_attending":2}`
	var p SummaryPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	s := p.ToModel()
	assert.Equal(t, 2, s.StudentsAttending)
	assert.Equal(t, 1, s.MentorsAttending)
	require.NotNil(t, s.Total)
	assert.Equal(t, 6, *s.Total)
}

func TestEventWriteRequestNormalize(t *testing.T) {
	r := EventWriteRequest{Title: " Demo ", StartTime: "9:15"}.Normalize()
	assert.Equal(t, "Demo", r.Title)
	assert.Equal(t, "09:15:00", r.StartTime)
}
