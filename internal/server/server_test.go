package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emrgen/lexicon/internal/auth"
	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/ledger"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/emrgen/lexicon/internal/synonym"
	"github.com/emrgen/lexicon/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	server *httptest.Server
}

func newClient(t *testing.T) *client {
	t.Helper()
	svc := service.NewModerationService(tester.NewStore(t), compress.NewLZ4(), nil, nil)
	srv := httptest.NewServer(NewRouter(svc, auth.NewHeaderProvider("m1")))
	t.Cleanup(srv.Close)
	return &client{t: t, server: srv}
}

// do sends body as json on behalf of actor and decodes the response into out.
func (c *client) do(method, path, actor string, body, out any) int {
	c.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.server.URL+"/v1"+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(auth.ActorHeader, actor)
	}

	res, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	if out != nil && res.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(res.Body).Decode(out))
	}

	return res.StatusCode
}

func TestServer_WordModeration(t *testing.T) {
	c := newClient(t)

	var failure errorBody
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/words", "", map[string]string{"term": "Ngor"}, &failure))
	assert.Equal(t, "unauthenticated", failure.Code)

	var word model.Word
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words", "u1", service.WordInput{Term: "Ngor"}, &word))
	assert.Equal(t, model.StatusPending, word.ValidationStatus)
	assert.Equal(t, "NG", word.InitialLetter)
	assert.EqualValues(t, 1, word.Version)

	// u1 is not in the moderator list, the header is ignored
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPut, "/words/"+word.ID+"/validate?version=1", "u1", nil, &failure))
	assert.Equal(t, "invalid_transition", failure.Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/words/"+word.ID+"/validate?version=1", "m1", nil, &word))
	assert.Equal(t, model.StatusValidated, word.ValidationStatus)
	assert.EqualValues(t, 2, word.Version)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPut, "/words/"+word.ID+"?version=1", "u1", map[string]string{"definition": "honesty"}, &failure))
	assert.Equal(t, "concurrent_modification", failure.Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/words/"+word.ID+"?version=2", "u1", map[string]string{"definition": "honesty"}, &word))
	assert.Equal(t, model.StatusPending, word.ValidationStatus)
	assert.Equal(t, "honesty", word.Definition)

	var history []*ledger.Entry
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/words/"+word.ID+"/history", "", nil, &history))
	require.Len(t, history, 3)
	assert.Equal(t, model.ActionCreate, history[0].Action)
	assert.Equal(t, model.ActionValidate, history[1].Action)
	assert.Equal(t, model.ActionUpdate, history[2].Action)

	var queue []*model.Word
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/queue/words", "", nil, &queue))
	require.Len(t, queue, 1)
	assert.Equal(t, word.ID, queue[0].ID)

	var letters []service.LetterCount
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/letters", "", nil, &letters))
	assert.Contains(t, letters, service.LetterCount{Letter: "NG", Count: 1})

	var page wordPage
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/letters/ng/words", "", nil, &page))
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Words, 1)
	assert.Equal(t, "Ngor", page.Words[0].Term)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/words/"+word.ID+"?version=3", "u1", nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/words/"+word.ID, "", nil, &failure))
	assert.Equal(t, "not_found", failure.Code)
}

func TestServer_BadRequests(t *testing.T) {
	c := newClient(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown field", http.MethodPost, "/words", `{"term":"Ngor","initialLetter":"Z"}`, http.StatusBadRequest, "validation_error"},
		{"malformed json", http.MethodPost, "/words", `{"term":`, http.StatusBadRequest, "validation_error"},
		{"empty term", http.MethodPost, "/words", service.WordInput{Term: "  "}, http.StatusBadRequest, "validation_error"},
		{"bad version", http.MethodDelete, "/words/x?version=abc", nil, http.StatusBadRequest, "validation_error"},
		{"unknown kind", http.MethodGet, "/queue/verbs", nil, http.StatusBadRequest, "validation_error"},
		{"missing word", http.MethodGet, "/words/missing", nil, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var failure errorBody
			assert.Equal(t, tt.status, c.do(tt.method, tt.path, "u1", tt.body, &failure))
			assert.Equal(t, tt.code, failure.Code)
		})
	}
}

func TestServer_Relations(t *testing.T) {
	c := newClient(t)

	var ngor, degg model.Word
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words", "u1", service.WordInput{Term: "ngor"}, &ngor))
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words", "u1", service.WordInput{Term: "dëgg"}, &degg))

	var failure errorBody
	link := linkRequest{SynonymID: ngor.ID, Strength: 5, Language: model.LanguageWolof}
	assert.Equal(t, http.StatusUnprocessableEntity, c.do(http.MethodPost, "/words/"+ngor.ID+"/synonyms", "u1", link, &failure))
	assert.Equal(t, "self_loop", failure.Code)

	var edge model.Synonym
	link.SynonymID = degg.ID
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words/"+ngor.ID+"/synonyms", "u1", link, &edge))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/words/"+degg.ID+"/synonyms", "u1",
		linkRequest{SynonymID: ngor.ID, Strength: 3, Language: model.LanguageWolof}, &failure))
	assert.Equal(t, "duplicate_edge", failure.Code)

	var neighbors []synonym.Neighbor
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/words/"+degg.ID+"/synonyms", "", nil, &neighbors))
	require.Len(t, neighbors, 1)
	assert.Equal(t, ngor.ID, neighbors[0].WordID)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/words/"+degg.ID+"/synonyms/"+ngor.ID, "u1", nil, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/words/"+ngor.ID+"/synonyms", "", nil, &neighbors))
	assert.Empty(t, neighbors)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/categories", "u1", categoryRequest{Name: "values"}, &failure))

	var values, people model.Category
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/categories", "m1", categoryRequest{Name: "values"}, &values))
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/categories", "m1", categoryRequest{Name: "people"}, &people))

	var assignments []*model.WordCategory
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/words/"+ngor.ID+"/categories", "u1", assignRequest{CategoryID: values.ID}, &assignments))
	require.Len(t, assignments, 1)
	assert.True(t, assignments[0].IsMainCategory)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/words/"+ngor.ID+"/categories", "u1", assignRequest{CategoryID: people.ID, IsMain: true}, &assignments))
	require.Len(t, assignments, 2)
	mains := 0
	for _, a := range assignments {
		if a.IsMainCategory {
			mains++
			assert.Equal(t, people.ID, a.CategoryID)
		}
	}
	assert.Equal(t, 1, mains)

	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/words/"+ngor.ID+"/categories/"+people.ID, "u1", nil, &assignments))
	require.Len(t, assignments, 1)
	assert.Equal(t, values.ID, assignments[0].CategoryID)
	assert.True(t, assignments[0].IsMainCategory)

	var categories []*model.Category
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/categories", "", nil, &categories))
	assert.Len(t, categories, 2)
}

func TestServer_Entries(t *testing.T) {
	c := newClient(t)

	var word model.Word
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words", "u1", service.WordInput{Term: "dem"}, &word))

	var tr model.Translation
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words/"+word.ID+"/translations", "u1",
		map[string]string{"text": "aller", "language": "français"}, &tr))
	assert.Equal(t, word.ID, tr.WordID)

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/translations/"+tr.ID+"/validate?version=1", "m1", nil, &tr))
	assert.Equal(t, model.StatusValidated, tr.ValidationStatus)

	var ex model.Example
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words/"+word.ID+"/examples", "u1",
		map[string]string{"text": "Dama dem", "translation": "je pars"}, &ex))
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/examples/"+ex.ID+"/reject", "m1", nil, &ex))
	assert.Equal(t, model.StatusRejected, ex.ValidationStatus)

	var conj model.Conjugation
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/words/"+word.ID+"/conjugations", "u1",
		map[string]string{"tense": "present", "person": "1sg", "form": "dama dem"}, &conj))

	var phrase model.Phrase
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/phrases", "u1",
		map[string]any{"wordId": word.ID, "text": "dem ba dem", "meaning": "forever"}, &phrase))
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/phrases/"+phrase.ID+"?version=1", "u1",
		map[string]string{"meaning": "for good"}, &phrase))
	assert.Equal(t, "for good", phrase.Meaning)

	var translations []*model.Translation
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/words/"+word.ID+"/translations", "", nil, &translations))
	require.Len(t, translations, 1)

	var conjugations []*model.Conjugation
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/words/"+word.ID+"/conjugations", "", nil, &conjugations))
	require.Len(t, conjugations, 1)

	var history []*ledger.Entry
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/phrases/"+phrase.ID+"/history", "", nil, &history))
	require.Len(t, history, 2)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/phrases/"+phrase.ID+"/revert?version=2", "u1",
		revertRequest{ContributionID: history[1].ID}, &phrase))
	assert.Equal(t, "forever", phrase.Meaning)
	assert.EqualValues(t, 3, phrase.Version)
}
