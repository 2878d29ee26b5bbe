package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/smart-umis-api/internal/config"
	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/aanand-mishra/smart-umis-api/internal/storage/sqlite"
	"github.com/aanand-mishra/smart-umis-api/internal/types"
	"github.com/aanand-mishra/smart-umis-api/internal/utils/response"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func newStore(t *testing.T) (*sqlite.SQLite, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	cfg := &config.Config{StoragePath: filepath.Join(t.TempDir(), "students.db")}
	s, err := sqlite.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), sqlite.WithClock(c.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, c
}

func newMux(store storage.StudentStore, opts Options) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/students/add", Add(store, opts))
	mux.HandleFunc("GET /api/students", GetList(store, opts))
	mux.HandleFunc("GET /api/students/{id}", GetByID(store, opts))
	mux.HandleFunc("PUT /api/students/{id}", Update(store, opts))
	mux.HandleFunc("DELETE /api/students/{id}", Delete(store, opts))
	return mux
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// stubStore counts calls and fails every one of them with err.
type stubStore struct {
	calls int
	err   error
}

func (s *stubStore) CreateStudent(context.Context, types.StudentFields, string) (int64, error) {
	s.calls++
	return 0, s.err
}

func (s *stubStore) GetStudents(context.Context) ([]types.Student, error) {
	s.calls++
	return nil, s.err
}

func (s *stubStore) GetStudentByID(context.Context, int64) (types.Student, error) {
	s.calls++
	return types.Student{}, s.err
}

func (s *stubStore) UpdateStudentByID(context.Context, int64, types.StudentFields) (int64, error) {
	s.calls++
	return 0, s.err
}

func (s *stubStore) DeleteStudentByID(context.Context, int64) (int64, error) {
	s.calls++
	return 0, s.err
}

func TestAddAppliesDefaults(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	rec := do(mux, http.MethodPost, "/api/students/add",
		`{"department":"CS","fullName":"A B","fatherName":"C D"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[addResponse](t, rec)
	assert.Equal(t, msgSaved, got.Message)
	assert.Equal(t, got.StudentID, got.Student.ID)
	assert.Equal(t, "CS", got.Student.Department)
	assert.Equal(t, "A B", got.Student.FullName)
	assert.Equal(t, "C D", got.Student.FatherName)
	assert.Empty(t, got.Student.Caste)
	assert.Equal(t, "unknown", got.Student.EnteredBy)

	stored, err := store.GetStudentByID(context.Background(), got.StudentID)
	require.NoError(t, err)
	assert.Empty(t, stored.Caste)
	assert.Empty(t, stored.MotherOccupation)
	assert.Empty(t, stored.FatherOccupation)
	assert.Equal(t, "unknown", stored.EnteredBy)
}

func TestAddKeepsOptionalFields(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	rec := do(mux, http.MethodPost, "/api/students/add", `{
		"department":"CS","fullName":"A B","fatherName":"C D",
		"caste":"OBC","motherOccupation":"Nurse","fatherOccupation":"Driver",
		"enteredBy":"clerk1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[addResponse](t, rec)
	stored, err := store.GetStudentByID(context.Background(), got.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "OBC", stored.Caste)
	assert.Equal(t, "Nurse", stored.MotherOccupation)
	assert.Equal(t, "Driver", stored.FatherOccupation)
	assert.Equal(t, "clerk1", stored.EnteredBy)
}

func TestAddRejectsMissingRequiredFields(t *testing.T) {
	bodies := map[string]string{
		"empty body":         "",
		"empty object":       `{}`,
		"no department":      `{"fullName":"A B","fatherName":"C D"}`,
		"no full name":       `{"department":"CS","fatherName":"C D"}`,
		"blank father name":  `{"department":"CS","fullName":"A B","fatherName":""}`,
		"null department":    `{"department":null,"fullName":"A B","fatherName":"C D"}`,
		"only optional data": `{"caste":"OBC","enteredBy":"x"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			store := &stubStore{}
			rec := do(newMux(store, Options{}), http.MethodPost, "/api/students/add", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, response.Message(msgRequired), decode[response.Response](t, rec))
			assert.Zero(t, store.calls, "store must not be touched")
		})
	}
}

func TestAddRejectsMalformedJSON(t *testing.T) {
	store := &stubStore{}
	rec := do(newMux(store, Options{}), http.MethodPost, "/api/students/add", `{"department":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidBody, decode[response.Response](t, rec).Message)
	assert.Zero(t, store.calls)
}

func TestListEmpty(t *testing.T) {
	store, _ := newStore(t)
	rec := do(newMux(store, Options{}), http.MethodGet, "/api/students", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"message":"Students fetched successfully","count":0,"students":[]}`,
		rec.Body.String())
}

func TestListNewestFirst(t *testing.T) {
	store, c := newStore(t)
	mux := newMux(store, Options{})

	for _, name := range []string{"first", "second", "third"} {
		rec := do(mux, http.MethodPost, "/api/students/add",
			`{"department":"CS","fullName":"`+name+`","fatherName":"F"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		c.t = c.t.Add(time.Second)
	}

	rec := do(mux, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[listResponse](t, rec)
	assert.Equal(t, msgListed, got.Message)
	require.Equal(t, 3, got.Count)
	require.Len(t, got.Students, 3)
	assert.Equal(t, "third", got.Students[0].FullName)
	assert.Equal(t, "second", got.Students[1].FullName)
	assert.Equal(t, "first", got.Students[2].FullName)
}

func TestListUsesColumnKeys(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	do(mux, http.MethodPost, "/api/students/add",
		`{"department":"CS","fullName":"A B","fatherName":"C D"}`)

	rec := do(mux, http.MethodGet, "/api/students", "")
	var raw struct {
		Students []map[string]any `json:"students"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Students, 1)

	for _, key := range []string{
		"id", "department", "full_name", "father_name", "caste",
		"mother_occupation", "father_occupation", "entered_by",
		"created_at", "updated_at",
	} {
		assert.Contains(t, raw.Students[0], key)
	}
}

func TestUpdateChecksBodyBeforeID(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	for _, body := range []string{"", `{}`, `{"department":"CS"}`} {
		rec := do(mux, http.MethodPut, "/api/students/999999", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, response.Message(msgRequired), decode[response.Response](t, rec))
	}

	rec := do(mux, http.MethodPut, "/api/students/999999",
		`{"department":"CS","fullName":"A B","fatherName":"C D"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimestampsAreRFC3339(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	added := decode[addResponse](t, do(mux, http.MethodPost, "/api/students/add",
		`{"department":"CS","fullName":"A B","fatherName":"C D"}`))

	var raw struct {
		Student map[string]any `json:"student"`
	}
	rec := do(mux, http.MethodGet, "/api/students/"+itoa(added.StudentID), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))

	assert.Equal(t, "2025-06-01T08:00:00Z", raw.Student["created_at"])
	assert.Equal(t, "2025-06-01T08:00:00Z", raw.Student["updated_at"])
}

func TestMissingStudentIs404(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})
	body := `{"department":"CS","fullName":"A B","fatherName":"C D"}`

	for _, path := range []string{"/api/students/999999", "/api/students/abc"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rec := do(mux, method, path, body)
			assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", method, path)
			assert.Equal(t, response.Message(msgNotFound), decode[response.Response](t, rec))
		}
	}
}

func TestGetByID(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	added := decode[addResponse](t, do(mux, http.MethodPost, "/api/students/add",
		`{"department":"CS","fullName":"A B","fatherName":"C D","enteredBy":"clerk"}`))

	rec := do(mux, http.MethodGet, "/api/students/"+itoa(added.StudentID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[getResponse](t, rec)
	assert.Equal(t, msgFetched, got.Message)
	assert.Equal(t, added.StudentID, got.Student.ID)
	assert.Equal(t, "A B", got.Student.FullName)
	assert.Equal(t, "clerk", got.Student.EnteredBy)
}

func TestUpdateOverwritesEveryField(t *testing.T) {
	store, c := newStore(t)
	mux := newMux(store, Options{})

	added := decode[addResponse](t, do(mux, http.MethodPost, "/api/students/add", `{
		"department":"CS","fullName":"A B","fatherName":"C D",
		"caste":"OBC","motherOccupation":"Nurse","fatherOccupation":"Driver",
		"enteredBy":"clerk"}`))
	path := "/api/students/" + itoa(added.StudentID)
	before := decode[getResponse](t, do(mux, http.MethodGet, path, "")).Student

	c.t = c.t.Add(time.Minute)
	rec := do(mux, http.MethodPut, path,
		`{"department":"EE","fullName":"X Y","fatherName":"Z W","motherOccupation":"Doctor"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[changesResponse](t, rec)
	assert.Equal(t, changesResponse{Message: msgUpdated, Changes: 1}, got)

	after := decode[getResponse](t, do(mux, http.MethodGet, path, "")).Student
	assert.Equal(t, "EE", after.Department)
	assert.Equal(t, "X Y", after.FullName)
	assert.Equal(t, "Z W", after.FatherName)
	assert.Equal(t, "", after.Caste, "omitted optional field is cleared")
	assert.Equal(t, "Doctor", after.MotherOccupation)
	assert.Equal(t, "", after.FatherOccupation)
	assert.Equal(t, "clerk", after.EnteredBy)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateRejectsMissingRequiredFields(t *testing.T) {
	store := &stubStore{}
	rec := do(newMux(store, Options{}), http.MethodPut, "/api/students/1", `{"department":"EE"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.Message(msgRequired), decode[response.Response](t, rec))
	assert.Zero(t, store.calls)
}

func TestDeleteThenGet(t *testing.T) {
	store, _ := newStore(t)
	mux := newMux(store, Options{})

	added := decode[addResponse](t, do(mux, http.MethodPost, "/api/students/add",
		`{"department":"CS","fullName":"A B","fatherName":"C D"}`))
	path := "/api/students/" + itoa(added.StudentID)

	rec := do(mux, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, changesResponse{Message: msgDeleted, Changes: 1}, decode[changesResponse](t, rec))

	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodDelete, path, "").Code)
}

func TestStoreFailuresAre500(t *testing.T) {
	dbErr := errors.New("disk I/O error")
	valid := `{"department":"CS","fullName":"A B","fatherName":"C D"}`

	cases := []struct {
		method, path, body, message string
	}{
		{http.MethodPost, "/api/students/add", valid, msgSaveFailed},
		{http.MethodGet, "/api/students", "", msgListFailed},
		{http.MethodGet, "/api/students/1", "", msgFetchFailed},
		{http.MethodPut, "/api/students/1", valid, msgUpdateFailed},
		{http.MethodDelete, "/api/students/1", "", msgDeleteFailed},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := do(newMux(&stubStore{err: dbErr}, Options{}), tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t,
				response.Response{Message: tc.message, Error: "disk I/O error"},
				decode[response.Response](t, rec))

			rec = do(newMux(&stubStore{err: dbErr}, Options{HideDBErrors: true}), tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestStoreFailureReportsDriverMessage(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Db.Exec("DROP TABLE students")
	require.NoError(t, err)

	rec := do(newMux(store, Options{}), http.MethodGet, "/api/students", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t,
		response.Response{Message: msgListFailed, Error: "no such table: students"},
		decode[response.Response](t, rec))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
