package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"student_console/internal/api"
	"student_console/internal/forms"
	"student_console/internal/middleware"
	"student_console/internal/model"
	"student_console/internal/service"
	"student_console/internal/session"
)

// Dialog names carried in the ?modal query parameter. A mutation dialog is
// closed (no parameter), open, or open-with-error (re-rendered after a failed
// submit); success closes it by redirecting back to the plain roster, which
// re-fetches the whole list from the records API.
const (
	modalAdd    = "add"
	modalEdit   = "edit"
	modalDelete = "delete"
)

// DashboardHandler serves the roster view and its mutation dialogs.
type DashboardHandler struct {
	sessions *session.Manager
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(sessions *session.Manager) *DashboardHandler {
	return &DashboardHandler{sessions: sessions}
}

// roster builds a RosterService bound to the request's session credentials.
func (h *DashboardHandler) roster(c *gin.Context, cur *session.Current) service.RosterService {
	return service.NewRosterService(h.sessions.Client(c, cur))
}

// dashboardState is what a render of the roster page needs besides the
// roster itself.
type dashboardState struct {
	Modal string
	Roll  string
	Form  forms.Form
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	state := dashboardState{
		Modal: c.Query("modal"),
		Roll:  c.Query("roll"),
		Form:  forms.New(),
	}
	h.render(c, state)
}

func (h *DashboardHandler) CreateStudent(c *gin.Context) {
	cur := middleware.CurrentSession(c)

	var schema forms.StudentForm
	_ = c.ShouldBind(&schema)
	form := forms.New().WithValues(studentValues(schema))

	// Client-side validation: nothing is sent upstream until it passes.
	if errs := forms.Validate(schema); len(errs) > 0 {
		h.render(c, dashboardState{Modal: modalAdd, Form: form.WithErrors(errs)})
		return
	}

	req := model.CreateStudentRequest{
		Name:       schema.Name,
		RollNumber: schema.RollNumber,
		ClassName:  schema.ClassName,
		Grade:      schema.Grade,
	}

	if _, err := h.roster(c, cur).Create(c.Request.Context(), req); err != nil {
		if h.redirectExpired(c, err) {
			return
		}
		h.render(c, dashboardState{Modal: modalAdd, Form: h.failForm(c, form, err)})
		return
	}

	h.sessions.Flash(c, "success", "Student added successfully")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *DashboardHandler) UpdateStudent(c *gin.Context) {
	cur := middleware.CurrentSession(c)
	rollNumber := c.Param("roll")

	var schema forms.StudentForm
	_ = c.ShouldBind(&schema)
	// The roll number is the addressing key. Whatever the (disabled) form
	// field carried is discarded in favor of the URL.
	schema.RollNumber = rollNumber
	form := forms.New().WithValues(studentValues(schema))

	if errs := forms.Validate(schema); len(errs) > 0 {
		h.render(c, dashboardState{Modal: modalEdit, Roll: rollNumber, Form: form.WithErrors(errs)})
		return
	}

	req := model.UpdateStudentRequest{
		Name:      &schema.Name,
		ClassName: &schema.ClassName,
		Grade:     &schema.Grade,
	}

	if _, err := h.roster(c, cur).Update(c.Request.Context(), rollNumber, req); err != nil {
		if h.redirectExpired(c, err) {
			return
		}
		h.render(c, dashboardState{Modal: modalEdit, Roll: rollNumber, Form: h.failForm(c, form, err)})
		return
	}

	h.sessions.Flash(c, "success", "Student updated successfully")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// DeleteStudent runs only after the confirmation dialog; opening the dialog
// is a plain GET that stages the target without touching the records API.
func (h *DashboardHandler) DeleteStudent(c *gin.Context) {
	cur := middleware.CurrentSession(c)
	rollNumber := c.Param("roll")

	if err := h.roster(c, cur).Delete(c.Request.Context(), rollNumber); err != nil {
		if h.redirectExpired(c, err) {
			return
		}
		for _, msg := range errorMessages(err) {
			h.sessions.Flash(c, "error", msg)
		}
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}

	h.sessions.Flash(c, "success", "Student deleted successfully")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// render fetches the roster and renders the page with the given dialog
// state. Every render re-derives the list from server truth.
func (h *DashboardHandler) render(c *gin.Context, state dashboardState) {
	cur := middleware.CurrentSession(c)

	students, err := h.roster(c, cur).List(c.Request.Context())
	if err != nil {
		if h.redirectExpired(c, err) {
			return
		}
		log.Printf("Error loading roster: %v", err)
		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"Title":     "Student Management System",
			"User":      cur.User,
			"LoadError": errorMessage(err),
			"Flashes":   h.sessions.Flashes(c),
		})
		return
	}

	query := c.Query("q")
	filtered := service.Filter(students, query)

	data := gin.H{
		"Title":    "Student Management System",
		"User":     cur.User,
		"Students": filtered,
		"Total":    len(students),
		"Query":    query,
		"Grades":   model.Grades,
		"Modal":    "",
		"Form":     state.Form,
		"Flashes":  h.sessions.Flashes(c),
	}

	switch state.Modal {
	case modalAdd:
		if cur.User.IsAdmin() {
			data["Modal"] = modalAdd
		}
	case modalEdit, modalDelete:
		target := findByRoll(students, state.Roll)
		if target == nil || !cur.User.IsAdmin() {
			break
		}
		data["Modal"] = state.Modal
		data["Target"] = target
		if state.Modal == modalEdit && len(state.Form.Values) == 0 {
			// Opening the dialog: pre-fill from the selected record.
			data["Form"] = state.Form.WithValues(map[string]string{
				"name":        target.Name,
				"roll_number": target.RollNumber,
				"class_name":  target.ClassName,
				"grade":       target.Grade,
			})
		}
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

// failForm folds an upstream failure into the dialog's form state and queues
// the matching notifications: one per field for structured validation
// errors, a single combined message otherwise.
func (h *DashboardHandler) failForm(c *gin.Context, form forms.Form, err error) forms.Form {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.HasFieldErrors() {
		errs := map[string]string{}
		for _, f := range apiErr.Fields {
			errs[f.Location] = f.Message
			h.sessions.Flash(c, "error", fmt.Sprintf("%s: %s", f.Location, f.Message))
		}
		return form.WithErrors(errs)
	}
	msg := errorMessage(err)
	h.sessions.Flash(c, "error", msg)
	return form.WithError(msg)
}

// redirectExpired converts an expired-session failure into a clean local
// logout plus a bounce to the login page.
func (h *DashboardHandler) redirectExpired(c *gin.Context, err error) bool {
	if !errors.Is(err, api.ErrSessionExpired) {
		return false
	}
	h.sessions.Clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
	return true
}

// RegisterDashboardRoutes registers the roster view and its admin-only
// mutations behind the given guards.
func (h *DashboardHandler) RegisterDashboardRoutes(router *gin.Engine, authMW, adminMW gin.HandlerFunc) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, session.DefaultLanding)
	})

	guarded := router.Group("/", authMW)
	guarded.GET("/dashboard", h.Dashboard)

	admin := guarded.Group("/students", adminMW)
	admin.POST("", h.CreateStudent)
	admin.POST("/:roll/update", h.UpdateStudent)
	admin.POST("/:roll/delete", h.DeleteStudent)
}

func studentValues(schema forms.StudentForm) map[string]string {
	return map[string]string{
		"name":        schema.Name,
		"roll_number": schema.RollNumber,
		"class_name":  schema.ClassName,
		"grade":       schema.Grade,
	}
}

func findByRoll(students []model.Student, rollNumber string) *model.Student {
	for i := range students {
		if students[i].RollNumber == rollNumber {
			return &students[i]
		}
	}
	return nil
}

// errorMessages expands a failure into the list of messages to notify:
// field-level entries individually when present, else one combined message.
func errorMessages(err error) []string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.HasFieldErrors() {
		msgs := make([]string, len(apiErr.Fields))
		for i, f := range apiErr.Fields {
			msgs[i] = fmt.Sprintf("%s: %s", f.Location, f.Message)
		}
		return msgs
	}
	return []string{errorMessage(err)}
}
