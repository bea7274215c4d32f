// Package stub is an in-memory stand-in for the student-records API. It
// implements the endpoint contract the console consumes — token login with a
// cookie-delivered refresh credential, /auth/me introspection, and the
// admin-gated student CRUD — so the console can run and be tested without
// the real backend. There is deliberately no database behind it.
package stub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"student_console/internal/model"
)

const refreshCookieName = "refresh_token"

type account struct {
	User         model.User
	PasswordHash string
}

// Server holds the stub's in-memory state.
type Server struct {
	mu sync.Mutex

	accounts map[string]*account     // username -> account
	students []*model.Student        // insertion order, the order the API returns
	byRoll   map[string]*model.Student
	refresh  map[string]string // refresh token -> username

	tokens *tokenIssuer
}

// New creates an empty stub. ttl bounds access-token lifetime; a negative
// ttl makes every issued token already expired, which is how tests exercise
// the 401/refresh path.
func New(secret string, ttl time.Duration) *Server {
	return &Server{
		accounts: make(map[string]*account),
		byRoll:   make(map[string]*model.Student),
		refresh:  make(map[string]string),
		tokens:   newTokenIssuer(secret, ttl),
	}
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens.ttl = ttl
}

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(user model.User, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user.Username] = &account{User: user, PasswordHash: hash}
	return nil
}

// SeedStudent inserts a student record directly.
func (s *Server) SeedStudent(student model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(student)
}

// Students returns a copy of the current roster, in API order.
func (s *Server) Students() []model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Student, len(s.students))
	for i, st := range s.students {
		out[i] = *st
	}
	return out
}

func (s *Server) insertLocked(student model.Student) *model.Student {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	if student.UpdatedAt.IsZero() {
		student.UpdatedAt = now
	}
	copied := student
	s.students = append(s.students, &copied)
	s.byRoll[copied.RollNumber] = &copied
	return &copied
}

// Router builds the gin engine serving the records-API contract.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	apiGroup := router.Group("/api/v1")

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/login", s.login)
		authGroup.POST("/register", s.register)
		authGroup.POST("/refresh", s.refreshToken)
		authGroup.POST("/logout", s.logout)
		authGroup.POST("/me", s.currentUser)
	}

	studentsGroup := apiGroup.Group("/students", s.requireBearer)
	{
		studentsGroup.GET("", s.listStudents)
		studentsGroup.POST("", s.requireAdmin, s.createStudent)
		studentsGroup.PUT("/:roll", s.requireAdmin, s.updateStudent)
		studentsGroup.DELETE("/:roll", s.requireAdmin, s.deleteStudent)
	}

	return router
}

// --- auth endpoints ---

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	s.mu.Lock()
	acct, ok := s.accounts[username]
	s.mu.Unlock()

	if !ok || !checkPasswordHash(password, acct.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}
	if acct.User.Disabled {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Inactive user"})
		return
	}

	token, err := s.tokens.Generate(acct.User.Username, acct.User.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to issue token"})
		return
	}

	refreshID := uuid.NewString()
	s.mu.Lock()
	s.refresh[refreshID] = acct.User.Username
	s.mu.Unlock()

	c.SetCookie(refreshCookieName, refreshID, int((30 * 24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         acct.User,
	})
}

func (s *Server) register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid registration payload: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Username]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already registered"})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	s.accounts[req.Username] = &account{
		User: model.User{
			Username: req.Username,
			Email:    req.Email,
			FullName: req.FullName,
			Role:     req.Role,
		},
		PasswordHash: hash,
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (s *Server) refreshToken(c *gin.Context) {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Missing refresh token"})
		return
	}

	s.mu.Lock()
	username, ok := s.refresh[cookie]
	var acct *account
	if ok {
		acct = s.accounts[username]
	}
	s.mu.Unlock()

	if acct == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid refresh token"})
		return
	}

	token, err := s.tokens.Generate(acct.User.Username, acct.User.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) logout(c *gin.Context) {
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		s.mu.Lock()
		delete(s.refresh, cookie)
		s.mu.Unlock()
	}
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) currentUser(c *gin.Context) {
	var req struct {
		AccessToken string `json:"access_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Missing access token"})
		return
	}

	claims, err := s.tokens.Validate(req.AccessToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
		return
	}

	s.mu.Lock()
	acct := s.accounts[claims.Username]
	s.mu.Unlock()
	if acct == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Unknown user"})
		return
	}
	c.JSON(http.StatusOK, acct.User)
}

// --- student endpoints ---

func (s *Server) listStudents(c *gin.Context) {
	c.JSON(http.StatusOK, s.Students())
}

func (s *Server) createStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid student payload: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byRoll[req.RollNumber]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": []gin.H{
			{"loc": []string{"body", "roll_number"}, "msg": "Student with this roll number already exists"},
		}})
		return
	}

	created := s.insertLocked(model.Student{
		Name:       req.Name,
		RollNumber: req.RollNumber,
		ClassName:  req.ClassName,
		Grade:      req.Grade,
	})
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateStudent(c *gin.Context) {
	var req model.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid student payload: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	student, exists := s.byRoll[c.Param("roll")]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Student not found"})
		return
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.ClassName != nil {
		student.ClassName = *req.ClassName
	}
	if req.Grade != nil {
		student.Grade = *req.Grade
	}
	student.UpdatedAt = time.Now().UTC()
	c.JSON(http.StatusOK, student)
}

func (s *Server) deleteStudent(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rollNumber := c.Param("roll")
	if _, exists := s.byRoll[rollNumber]; !exists {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Student not found"})
		return
	}

	delete(s.byRoll, rollNumber)
	for i, st := range s.students {
		if st.RollNumber == rollNumber {
			s.students = append(s.students[:i], s.students[i+1:]...)
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}

// --- middleware ---

func (s *Server) requireBearer(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header required"})
		return
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header format"})
		return
	}

	claims, err := s.tokens.Validate(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
		return
	}

	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	role, _ := c.Get("role")
	if role != model.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Not enough permissions"})
		return
	}
	c.Next()
}
