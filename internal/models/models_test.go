package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalNaiveAndZoned(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"naive with micros", `"2024-05-01T10:20:30.123456"`, time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC)},
		{"naive", `"2024-05-01T10:20:30"`, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{"rfc3339", `"2024-05-01T10:20:30Z"`, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{"space separated", `"2024-05-01 10:20:30"`, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_NullAndInvalid(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestDecimal_NumberOrString(t *testing.T) {
	var plan Plan
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"Standard","price":"19.99","period":"month"}`), &plan))
	assert.InDelta(t, 19.99, plan.Price.Float64(), 1e-9)

	var event DetectionEvent
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"camera_id":2,"detection_confidence":0.83,"detected_at":"2024-05-01T10:00:00","created_at":"2024-05-01T10:00:00"}`), &event))
	assert.InDelta(t, 0.83, event.Confidence.Float64(), 1e-9)
}

func TestConfidence_Banding(t *testing.T) {
	tests := []struct {
		score   float64
		percent int
		band    ConfidenceBand
	}{
		{0.83, 83, ConfidenceHigh},
		{0.8, 80, ConfidenceHigh},
		{0.79, 79, ConfidenceMedium},
		{0.61, 61, ConfidenceMedium},
		{0.6, 60, ConfidenceMedium},
		{0.40, 40, ConfidenceLow},
		{0, 0, ConfidenceLow},
		{1, 100, ConfidenceHigh},
	}

	for _, tt := range tests {
		percent, band := Confidence(tt.score)
		assert.Equal(t, tt.percent, percent, "score %v", tt.score)
		assert.Equal(t, tt.band, band, "score %v", tt.score)
	}
}

func TestDetectionEvent_WeakReferences(t *testing.T) {
	event := DetectionEvent{}
	assert.Equal(t, UnknownLabel, event.CameraName())
	assert.Equal(t, UnknownLabel, event.FaceName())

	event.Camera = &CameraSnapshot{ID: 1, Name: "Lobby"}
	event.RegisteredFace = &FaceSnapshot{ID: 2, Name: "Alice"}
	assert.Equal(t, "Lobby", event.CameraName())
	assert.Equal(t, "Alice", event.FaceName())
}

func TestNewCameraInput_WebcamDropsNetworkFields(t *testing.T) {
	input, err := NewCameraInput(CameraForm{
		Type:     "webcam",
		Name:     "Desk cam",
		Brand:    "Logitech",
		Address:  "10.0.0.1",
		Port:     "554",
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, CameraTypeWebcam, input.Type())

	body, err := json.Marshal(input.Body())
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &fields))
	for _, key := range []string{"ip_address", "port", "username", "password"} {
		_, present := fields[key]
		assert.False(t, present, "webcam body must not contain %s", key)
	}
	assert.Equal(t, "webcam", fields["camera_type"])
}

func TestNewCameraInput_IPCamera(t *testing.T) {
	input, err := NewCameraInput(CameraForm{
		Type:     "ip",
		Name:     "Gate",
		Brand:    "Hikvision",
		Address:  "192.168.1.20",
		Port:     "554",
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)

	body, err := json.Marshal(input.Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{"camera_name":"Gate","camera_brand":"Hikvision","camera_type":"ip_camera","ip_address":"192.168.1.20","port":554,"username":"admin","password":"secret"}`, string(body))
}

func TestNewCameraInput_Errors(t *testing.T) {
	_, err := NewCameraInput(CameraForm{Type: "thermal", Name: "x"})
	assert.Error(t, err)

	_, err = NewCameraInput(CameraForm{Type: "ip_camera", Name: "Gate", Address: "192.168.1.20", Port: "abc"})
	assert.Error(t, err)

	_, err = NewCameraInput(CameraForm{Type: "ip_camera", Name: "Gate", Address: "192.168.1.20", Port: "0"})
	assert.Error(t, err)

	_, err = NewCameraInput(CameraForm{Type: "webcam", Name: "  "})
	assert.Error(t, err)
}

func TestCamera_NetworkIsNilForWebcam(t *testing.T) {
	port := 554
	webcam := Camera{Type: CameraTypeWebcam, IPAddress: "10.0.0.1", Port: &port}
	assert.Nil(t, webcam.Network())

	ip := Camera{Type: CameraTypeIP, IPAddress: "10.0.0.1", Port: &port, Username: "admin"}
	require.NotNil(t, ip.Network())
	assert.Equal(t, 554, ip.Network().Port)
}

func TestCameraStatus_Color(t *testing.T) {
	assert.Equal(t, "green", CameraStatus("Active").Color())
	assert.Equal(t, "red", CameraStatusInactive.Color())
	assert.Equal(t, "yellow", CameraStatusDisabled.Color())
	assert.Equal(t, "gray", CameraStatus("rebooting").Color())
}

func TestCameraUpdate_Validate(t *testing.T) {
	webcam := CameraTypeWebcam
	addr := "10.0.0.5"
	assert.Error(t, CameraUpdate{Type: &webcam, IPAddress: &addr}.Validate())

	status := CameraStatus("broken")
	assert.Error(t, CameraUpdate{Status: &status}.Validate())

	active := CameraStatusActive
	assert.NoError(t, CameraUpdate{Status: &active}.Validate())

	assert.True(t, CameraUpdate{}.IsEmpty())
	assert.False(t, CameraUpdate{Status: &active}.IsEmpty())
}

func TestFaceUpload_Validate(t *testing.T) {
	assert.ErrorIs(t, FaceUpload{Name: "   ", FileName: "a.jpg", Image: strings.NewReader("x")}.Validate(), ErrFaceUploadIncomplete)
	assert.ErrorIs(t, FaceUpload{Name: "Alice"}.Validate(), ErrFaceUploadIncomplete)
	assert.NoError(t, FaceUpload{Name: "Alice", FileName: "a.jpg", Image: strings.NewReader("x")}.Validate())
}

func TestDashboardStats_Unmarshal(t *testing.T) {
	var stats DashboardStats
	require.NoError(t, json.Unmarshal([]byte(`{"total_alerts_today":"03","total_registered_faces":"12"}`), &stats))
	assert.Equal(t, DashboardStats{AlertsToday: "03", RegisteredFaces: "12"}, stats)

	require.NoError(t, json.Unmarshal([]byte(`{"total_alerts_today":4,"total_registered_faces":null}`), &stats))
	assert.Equal(t, DashboardStats{AlertsToday: "04", RegisteredFaces: StatsSentinel}, stats)

	assert.Error(t, json.Unmarshal([]byte(`{"total_alerts_today":true}`), &stats))
}

func TestRegisterInput_Validate(t *testing.T) {
	input := RegisterInput{Email: " op@example.com ", FullName: "Operator", Password: "secret123", ConfirmPassword: "secret123"}.Normalize()
	assert.Equal(t, DefaultPackage, input.SelectedPackage)
	assert.Equal(t, "op@example.com", input.Email)
	assert.NoError(t, input.Validate())

	input.ConfirmPassword = "other"
	assert.EqualError(t, input.Validate(), "passwords do not match")

	assert.Error(t, RegisterInput{Email: "bad", FullName: "x", Password: "p", ConfirmPassword: "p"}.Validate())
}

func TestPlan_LimitLabels(t *testing.T) {
	unlimited, five := -1, 5
	plan := Plan{CameraLimit: &unlimited, MaxRegisteredFaces: &five}
	assert.Equal(t, "unlimited", plan.CameraLimitLabel())
	assert.Equal(t, "5", plan.FaceLimitLabel())
	assert.Equal(t, "-", Plan{}.CameraLimitLabel())
}
