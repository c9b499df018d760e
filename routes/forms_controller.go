package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/formie/app"
	"github.com/mbolis/formie/httpx"
	"github.com/mbolis/formie/log"
	"github.com/mbolis/formie/model"
	"github.com/mbolis/formie/results"
	"github.com/mbolis/formie/routes/middlewares"
	"github.com/mbolis/formie/schema"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.read_body")
			return
		}

		doc, err := decodeSchemaDoc(string(body))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := schema.Validate(doc); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "schema.validate", "%s", err)
			return
		}

		// the document was validated above, so a decode failure here is ours
		fields, err := schema.DecodeFields(doc.([]any))
		if err != nil {
			httpx.LogInternalError(w, "schema.decode", err)
			return
		}

		var flags model.ACF
		if r.URL.Query().Get("hide_results") == "true" {
			flags |= model.HideResults
		}
		if r.URL.Query().Get("disallow_anon_answer") == "true" {
			flags |= model.DisallowAnonAnswer
		}

		// route is behind middlewares.Authenticated
		userID, ok := middlewares.UserID(r.Context())
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "form.create.identity")
			return
		}

		// the schema text is stored verbatim as submitted
		var formID int64
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO form (schema, created_at, creator_id, access_control_flags)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			string(body),
			time.Now(),
			userID,
			int64(flags),
		).Scan(&formID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		_, err = app.Shapes.GetOrCreate(strconv.FormatInt(formID, 10), fields)
		if err != nil {
			httpx.LogInternalError(w, "storage.create_shape", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": formID,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	type formInfo struct {
		ID      int64  `json:"id"`
		Creator string `json:"creator"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT f.id, u.username
			FROM form f
			LEFT OUTER JOIN user u ON (f.creator_id = u.id)
			ORDER BY f.id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []formInfo{}
		for rows.Next() {
			f := formInfo{}
			var creator sql.NullString
			err = rows.Scan(&f.ID, &creator)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}

			f.Creator = "anon"
			if creator.Valid {
				f.Creator = creator.String
			}
			forms = append(forms, f)
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := fetchForm(app, w, r)
		if !ok {
			return
		}

		render.JSON(w, r, map[string]any{
			"id":     form.ID,
			"schema": json.RawMessage(form.Schema),
		})
	}
}

func SubmitAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := fetchForm(app, w, r)
		if !ok {
			return
		}

		userID, identified := middlewares.UserID(r.Context())
		if !form.AcceptsAnswerFrom(userID, identified) {
			httpx.LogForbidden(w, "answer.anon_disallowed")
			return
		}

		fields, ok := decodeStoredSchema(app, w, form)
		if !ok {
			return
		}

		err := r.ParseForm()
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}

		if err := schema.ValidateAnswer(fields, r.PostForm); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "answer.validate", "%s", err)
			return
		}
		values := schema.EncodeAnswer(fields, r.PostForm)

		shape, err := app.Shapes.GetOrCreate(strconv.FormatInt(form.ID, 10), fields)
		if err != nil {
			httpx.LogInternalError(w, "storage.get_shape", err)
			return
		}

		rowID, err := app.Shapes.Insert(shape, values)
		if err != nil {
			httpx.LogInternalError(w, "storage.insert_answer", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": rowID,
		})
	}
}

func GetResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := fetchForm(app, w, r)
		if !ok {
			return
		}

		userID, identified := middlewares.UserID(r.Context())
		if !form.ShowsResultsTo(userID, identified) {
			httpx.LogForbidden(w, "results.hidden")
			return
		}

		fields, ok := decodeStoredSchema(app, w, form)
		if !ok {
			return
		}

		shape, err := app.Shapes.GetOrCreate(strconv.FormatInt(form.ID, 10), fields)
		if err != nil {
			httpx.LogInternalError(w, "storage.get_shape", err)
			return
		}

		rows, err := app.Shapes.Rows(shape)
		if err != nil {
			httpx.LogInternalError(w, "storage.get_answers", err)
			return
		}

		table, err := results.Table(fields, rows)
		if err != nil {
			httpx.LogInternalError(w, "results.decode", err)
			return
		}

		if r.URL.Query().Get("format") == "csv" {
			data, err := results.CSV(table)
			if err != nil {
				httpx.LogInternalError(w, "results.csv", err)
				return
			}
			w.Header().Set("content-type", "text/csv")
			w.Write(data)
			return
		}

		render.JSON(w, r, map[string]any{
			"results": table,
		})
	}
}

// fetchForm resolves the {id} URL parameter to a stored form, writing the
// error response itself when it cannot.
func fetchForm(app app.App, w http.ResponseWriter, r *http.Request) (form model.Form, ok bool) {
	formID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return form, false
	}

	form, err = loadForm(r.Context(), app, formID)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.LogNotFound(w, "get_form", formID)
		return form, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.get_form", err)
		return form, false
	}
	return form, true
}

func loadForm(ctx context.Context, app app.App, formID int64) (form model.Form, err error) {
	var flags int64
	err = app.QueryRowContext(ctx, `
		SELECT id, schema, created_at, creator_id, access_control_flags
		FROM form
		WHERE id = ?`,
		formID,
	).Scan(&form.ID, &form.Schema, &form.CreatedAt, &form.CreatorID, &flags)
	form.Flags = model.ACF(flags)
	return
}

// decodeStoredSchema re-decodes a form's stored schema text. Stored schemas
// passed validation when the form was created, so any failure here is a
// stored-data fault and surfaces as a 500, never as user feedback.
func decodeStoredSchema(app app.App, w http.ResponseWriter, form model.Form) ([]schema.Field, bool) {
	doc, err := decodeSchemaDoc(form.Schema)
	if err != nil {
		httpx.LogInternalError(w, "schema.parse_stored", err)
		return nil, false
	}
	list, ok := doc.([]any)
	if !ok {
		httpx.LogInternalError(w, "schema.parse_stored", &schema.DecodeError{Message: "invalid format"})
		return nil, false
	}

	fields, err := schema.DecodeFields(list)
	if err != nil {
		httpx.LogInternalError(w, "schema.decode_stored", err)
		return nil, false
	}
	return fields, true
}

// decodeSchemaDoc parses schema JSON preserving integer fidelity: numbers
// come out as json.Number, which is what the schema package expects.
func decodeSchemaDoc(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
