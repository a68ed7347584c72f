package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
)

func TestCreateCamera_WebcamBodyHasNoNetworkKeys(t *testing.T) {
	var body map[string]interface{}
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cameras", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body = decodeJSON(t, r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"camera_name":"Desk","camera_type":"webcam","status":"active","created_at":"2024-01-01T00:00:00","updated_at":"2024-01-01T00:00:00"}`))
	})

	input, err := models.NewCameraInput(models.CameraForm{Type: "webcam", Name: "Desk", Address: "10.0.0.9", Port: "80", Username: "u", Password: "p"})
	require.NoError(t, err)

	camera, err := g.CreateCamera(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(7), camera.ID)

	for _, key := range []string{"ip_address", "port", "username", "password"} {
		assert.NotContains(t, body, key)
	}
	assert.Equal(t, "webcam", body["camera_type"])
}

func TestCreateCamera_InvalidInputMakesNoCall(t *testing.T) {
	var calls int32
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := g.CreateCamera(context.Background(), models.IPCameraInput{Name: "Gate", Address: "10.0.0.1", Port: 70000})
	assert.True(t, errors.IsValidation(err))
	_, err = g.CreateCamera(context.Background(), nil)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestUpdateAndTestCamera(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/cameras/3":
			body := decodeJSON(t, r.Body)
			assert.Equal(t, map[string]interface{}{"status": "disabled"}, body)
			w.Write([]byte(`{"id":3,"camera_name":"Gate","camera_type":"ip_camera","status":"disabled","created_at":"2024-01-01T00:00:00","updated_at":"2024-01-02T00:00:00"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/cameras/3/test":
			w.Write([]byte(`{"status":"success","message":"Camera reachable"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	disabled := models.CameraStatusDisabled
	camera, err := g.UpdateCamera(context.Background(), 3, models.CameraUpdate{Status: &disabled})
	require.NoError(t, err)
	assert.Equal(t, models.CameraStatusDisabled, camera.Status)

	_, err = g.UpdateCamera(context.Background(), 3, models.CameraUpdate{})
	assert.True(t, errors.IsValidation(err))

	result, err := g.TestCamera(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Camera reachable", result.Message)
}

func TestCreateFace_Multipart(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Alice", r.FormValue("face_name"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "alice.jpg", header.Filename)
		assert.Equal(t, "jpegbytes", string(content))

		w.Write([]byte(`{"id":5,"face_name":"Alice","face_image_path":"faces/5.jpg","is_active":true,"created_at":"2024-01-01T00:00:00","updated_at":"2024-01-01T00:00:00"}`))
	})

	face, err := g.CreateFace(context.Background(), models.FaceUpload{Name: " Alice ", FileName: "alice.jpg", Image: strings.NewReader("jpegbytes")})
	require.NoError(t, err)
	assert.Equal(t, "faces/5.jpg", face.ImagePath)
}

func TestCreateFace_BlankNameMakesNoCall(t *testing.T) {
	var calls int32
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := g.CreateFace(context.Background(), models.FaceUpload{Name: "  ", FileName: "a.jpg", Image: strings.NewReader("x")})
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDetections_Paging(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		w.Write([]byte(`[{"id":1,"camera_id":2,"detection_confidence":"0.83","detected_at":"2024-05-01T10:00:00","created_at":"2024-05-01T10:00:00","camera":{"id":2,"camera_name":"Lobby"}}]`))
	})

	events, err := g.Detections(context.Background(), 20, 40)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Lobby", events[0].CameraName())
	assert.Equal(t, models.UnknownLabel, events[0].FaceName())
}

func TestRegister(t *testing.T) {
	var calls int32
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body := decodeJSON(t, r.Body)
		assert.Equal(t, "Standard", body["selected_package"])
		w.Write([]byte(`{"id":1,"email":"op@example.com","full_name":"Op","is_active":true,"is_verified":false,"created_at":"2024-01-01T00:00:00"}`))
	})

	_, err := g.Register(context.Background(), models.RegisterInput{Email: "op@example.com", FullName: "Op", Password: "a", ConfirmPassword: "b"})
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&calls))

	account, err := g.Register(context.Background(), models.RegisterInput{Email: "op@example.com", FullName: "Op", Password: "secret", ConfirmPassword: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Op", account.FullName)
}

func TestPackagesAndStats(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/packages":
			w.Write([]byte(`[{"id":1,"name":"Standard","price":"9.99","period":"month","features":["5 cameras"],"camera_limit":5,"max_registered_faces":-1}]`))
		case "/dashboard/stats":
			w.Write([]byte(`{"total_alerts_today":"03","total_registered_faces":"12"}`))
		}
	})

	plans, err := g.Packages(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "unlimited", plans[0].FaceLimitLabel())

	stats, err := g.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "03", stats.AlertsToday)
}

func TestDeleteFace_NoContent(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/faces/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, g.DeleteFace(context.Background(), 9))
}
