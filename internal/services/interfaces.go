package services

import (
	"context"
	"io"
	"time"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// ===== SESSION =====

// SessionUser is the identity carried by a verified session token
type SessionUser struct {
	ID    uint            `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name"`
	Role  models.UserRole `json:"role"`
}

func (u SessionUser) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

// ===== COURSE DTOs =====

type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"required,max=5000"`
	Hours       *int   `json:"hours" validate:"omitempty,min=1,max=1000"`
}

type UpdateCourseRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"required,max=5000"`
	Hours       *int   `json:"hours" validate:"omitempty,min=1,max=1000"`
}

// AvailableCourse is a catalog entry with the caller's progress in it
type AvailableCourse struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Hours       int                   `json:"hours"`
	ModuleCount int                   `json:"moduleCount"`
	LessonCount int                   `json:"lessonCount"`
	Progress    models.CourseProgress `json:"progress"`
}

// ===== MODULE DTOs =====

type CreateModuleRequest struct {
	CourseID    uint   `json:"courseId" validate:"required"`
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"required,max=5000"`
}

type UpdateModuleRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"required,max=5000"`
}

type ReorderModulesRequest struct {
	CourseID  uint   `json:"courseId" validate:"required"`
	ModuleIDs []uint `json:"moduleIds" validate:"required,min=1,dive,required"`
}

// ===== LESSON DTOs =====

type CreateLessonRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"max=5000"`
	VideoID     string `json:"videoId" validate:"required,max=255"`
	VideoSource string `json:"videoSource" validate:"omitempty,video_source"`
	Duration    int    `json:"duration" validate:"min=0"`
	IsPublished *bool  `json:"isPublished"`
}

type UpdateLessonRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"max=5000"`
	VideoID     string `json:"videoId" validate:"required,max=255"`
	VideoSource string `json:"videoSource" validate:"omitempty,video_source"`
	Duration    *int   `json:"duration" validate:"omitempty,min=0"`
	IsPublished *bool  `json:"isPublished"`
}

type AttachVideoRequest struct {
	VideoID     string `json:"videoId" validate:"required,max=255"`
	VideoSource string `json:"videoSource" validate:"omitempty,video_source"`
	Duration    int    `json:"duration" validate:"min=0"`
}

// ===== PROGRESS DTOs =====

type UpdateProgressRequest struct {
	LessonID  uint    `json:"lessonId" validate:"required"`
	CourseID  *uint   `json:"courseId"`
	Progress  float64 `json:"progress" validate:"progress_percent"`
	Completed bool    `json:"completed"`
}

type CourseCompletion struct {
	Completed          bool   `json:"completed"`
	CompletedLessonIDs []uint `json:"completedLessonIds"`
	TotalLessons       int    `json:"totalLessons"`
}

// ===== QUIZ DTOs =====

type QuizQuestionRequest struct {
	Question      string   `json:"question" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required,min=0"`
}

type CreateQuizRequest struct {
	CourseID  uint                  `json:"courseId" validate:"required"`
	Questions []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type UpdateQuizRequest struct {
	Questions []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuizView is a quiz as shown to a caller; students never see the correct answers
type QuizView struct {
	ID        uint               `json:"id"`
	CourseID  uint               `json:"courseId"`
	Questions []QuizQuestionView `json:"questions"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type QuizQuestionView struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
}

type SubmittedAnswer struct {
	SelectedAnswer int `json:"selectedAnswer"`
}

type SubmitQuizRequest struct {
	QuizID  uint              `json:"quizId" validate:"required"`
	Answers []SubmittedAnswer `json:"answers" validate:"required,dive"`
}

type QuizResponseView struct {
	ID          uint                `json:"id"`
	QuizID      uint                `json:"quizId"`
	UserID      uint                `json:"userId"`
	Score       int                 `json:"score"`
	Passed      bool                `json:"passed"`
	Answers     []models.QuizAnswer `json:"answers"`
	CompletedAt time.Time           `json:"completedAt"`
}

// QuizResultSummary is one (student, quiz) group in the admin results listing
type QuizResultSummary struct {
	ResponseID         uint      `json:"responseId"`
	UserID             uint      `json:"userId"`
	StudentName        string    `json:"studentName"`
	StudentEmail       string    `json:"studentEmail"`
	QuizID             uint      `json:"quizId"`
	CourseID           uint      `json:"courseId"`
	CourseTitle        string    `json:"courseTitle"`
	Score              int       `json:"score"`
	Passed             bool      `json:"passed"`
	AttemptsBeforePass int       `json:"attemptsBeforePass"`
	TotalAttempts      int       `json:"totalAttempts"`
	CompletedAt        time.Time `json:"completedAt"`
}

// ===== CERTIFICATE DTOs =====

type IssueCertificateRequest struct {
	CourseID uint `json:"courseId" validate:"required"`
}

type CertificateView struct {
	ID             uint                     `json:"id"`
	UserID         uint                     `json:"userId"`
	CourseID       uint                     `json:"courseId"`
	CourseTitle    string                   `json:"courseTitle,omitempty"`
	QuizScore      int                      `json:"quizScore"`
	ValidationCode string                   `json:"validationCode"`
	Status         models.CertificateStatus `json:"status"`
	IssuedAt       time.Time                `json:"issuedAt"`
}

// CertificateValidation is the public answer for a valid code
type CertificateValidation struct {
	ValidationCode string    `json:"validationCode"`
	StudentName    string    `json:"studentName"`
	CourseTitle    string    `json:"courseTitle"`
	Hours          int       `json:"hours"`
	QuizScore      int       `json:"quizScore"`
	IssuedAt       time.Time `json:"issuedAt"`
}

type CertificateDocument struct {
	Filename string
	Content  []byte
}

// ===== VIDEO DTOs =====

const (
	UploadApproachTus  = "tus"
	UploadApproachPost = "post"
)

type CreateUploadRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=5000"`
	Privacy     string `json:"privacy" validate:"omitempty,privacy_view"`
	FileSize    int64  `json:"fileSize" validate:"required,gt=0"`
	Approach    string `json:"approach" validate:"omitempty,oneof=tus post"`
	RedirectURL string `json:"redirectUrl" validate:"omitempty,url"`
}

type UploadSession struct {
	UploadLink string `json:"uploadLink"`
	UploadForm string `json:"uploadForm,omitempty"`
	VideoURI   string `json:"videoUri"`
	VideoID    string `json:"videoId"`
	Approach   string `json:"approach"`
}

type VideoThumbnail struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

type VideoMetadata struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Duration    int              `json:"duration"`
	Thumbnails  []VideoThumbnail `json:"thumbnails"`
	Privacy     string           `json:"privacy"`
	Status      string           `json:"status,omitempty"`
	CreatedAt   *time.Time       `json:"createdAt"`
	UploadedAt  *time.Time       `json:"uploadedAt"`
}

// ===== USER DTOs =====

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,user_role"`
}

type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,user_role"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,user_status"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// ===== DASHBOARD DTOs =====

// CourseProgressItem is one course's progress block for a student
type CourseProgressItem struct {
	CourseID    uint   `json:"courseId"`
	CourseName  string `json:"courseName"`
	Description string `json:"description,omitempty"`
	models.CourseProgress
}

type StudentStats struct {
	TotalCourses     int64 `json:"totalCourses"`
	CompletedLessons int64 `json:"completedLessons"`
	InProgress       int   `json:"inProgress"`
}

type StudentDashboard struct {
	CoursesProgress []CourseProgressItem `json:"coursesProgress"`
	Stats           StudentStats         `json:"stats"`
}

type StudentActivityStats struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type CourseEngagement struct {
	CourseID       uint   `json:"courseId"`
	CourseName     string `json:"courseName"`
	TotalStudents  int    `json:"totalStudents"`
	CompletionRate int    `json:"completionRate"`
}

type AdminDashboard struct {
	TotalStudents    int64                     `json:"totalStudents"`
	TotalCourses     int64                     `json:"totalCourses"`
	TotalLessons     int64                     `json:"totalLessons"`
	TotalCompletions int                       `json:"totalCompletions"`
	StudentProgress  StudentActivityStats      `json:"studentProgress"`
	CourseEngagement []CourseEngagement        `json:"courseEngagement"`
	RecentActivities []models.ProgressActivity `json:"recentActivities"`
}

type StudentSummary struct {
	ID                    uint              `json:"id"`
	Name                  string            `json:"name"`
	Email                 string            `json:"email"`
	Status                models.UserStatus `json:"status"`
	CreatedAt             time.Time         `json:"createdAt"`
	TotalCourses          int64             `json:"totalCourses"`
	CoursesStarted        int               `json:"coursesStarted"`
	LastAccess            *time.Time        `json:"lastAccess"`
	TotalLessonsCompleted int               `json:"totalLessonsCompleted"`
}

type StudentCourseProgress struct {
	CourseID         uint       `json:"courseId"`
	CourseName       string     `json:"courseName"`
	CompletedLessons int64      `json:"completedLessons"`
	TotalLessons     int64      `json:"totalLessons"`
	PercentComplete  int        `json:"percentComplete"`
	LastAccess       *time.Time `json:"lastAccess"`
}

type StudentProgressReport struct {
	Student *models.User            `json:"student"`
	Courses []StudentCourseProgress `json:"courses"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*models.Course, error)
	ListAvailable(ctx context.Context, userID uint) ([]*AvailableCourse, error)
}

type ModuleService interface {
	Create(ctx context.Context, req *CreateModuleRequest) (*models.Module, error)
	GetByID(ctx context.Context, id uint) (*models.Module, error)
	Update(ctx context.Context, id uint, req *UpdateModuleRequest) (*models.Module, error)
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, req *ReorderModulesRequest) error
}

type LessonService interface {
	Create(ctx context.Context, moduleID uint, req *CreateLessonRequest) (*models.Lesson, error)
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	ListByModule(ctx context.Context, moduleID uint) ([]*models.Lesson, error)
	Update(ctx context.Context, id uint, req *UpdateLessonRequest) (*models.Lesson, error)
	AttachVideo(ctx context.Context, id uint, req *AttachVideoRequest) (*models.Lesson, error)
	Delete(ctx context.Context, id uint) error
}

type ProgressService interface {
	Update(ctx context.Context, userID uint, req *UpdateProgressRequest) (*models.Progress, error)
	ListByCourse(ctx context.Context, userID, courseID uint) ([]*models.Progress, error)
	CourseProgress(ctx context.Context, userID, courseID uint) (*models.CourseProgress, error)
	CourseCompletion(ctx context.Context, userID, courseID uint) (*CourseCompletion, error)
}

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest) (*QuizView, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest) (*QuizView, error)
	// GetByCourse returns nil without error when the course has no quiz
	GetByCourse(ctx context.Context, courseID uint, viewer SessionUser) (*QuizView, error)
	Submit(ctx context.Context, userID uint, req *SubmitQuizRequest) (*QuizResponseView, error)
	LatestResponse(ctx context.Context, userID, courseID uint) (*QuizResponseView, error)
	ListResults(ctx context.Context, courseID *uint) ([]*QuizResultSummary, error)
}

type CertificateService interface {
	Issue(ctx context.Context, userID uint, req *IssueCertificateRequest) (*CertificateView, error)
	GetForCourse(ctx context.Context, userID, courseID uint) (*CertificateView, error)
	ListByUser(ctx context.Context, userID uint) ([]*CertificateView, error)
	Validate(ctx context.Context, code string) (*CertificateValidation, error)
	Download(ctx context.Context, certificateID uint, requester SessionUser) (*CertificateDocument, error)
	Revoke(ctx context.Context, id uint) error
}

type VideoService interface {
	CreateUpload(ctx context.Context, req *CreateUploadRequest) (*UploadSession, error)
	GetMetadata(ctx context.Context, videoID string) (*VideoMetadata, error)
}

type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest) (*models.User, error)
	UpdateStatus(ctx context.Context, id uint, req *UpdateUserStatusRequest) (*models.User, error)
	Delete(ctx context.Context, id uint, requesterID uint) error
	List(ctx context.Context) ([]*models.User, error)
}

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)
	IssueToken(user *models.User) (string, time.Time, error)
	ParseToken(token string) (*SessionUser, error)
	Me(ctx context.Context, session SessionUser) (*models.User, error)
	// EnsureAdmin seeds the bootstrap admin when it does not exist yet
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

type DashboardService interface {
	StudentDashboard(ctx context.Context, userID uint) (*StudentDashboard, error)
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
	ListStudents(ctx context.Context) ([]*StudentSummary, error)
	StudentProgress(ctx context.Context, studentID uint) (*StudentProgressReport, error)
}

type ExportService interface {
	ExportQuizResults(ctx context.Context, w io.Writer, courseID *uint) error
	ExportStudentProgress(ctx context.Context, w io.Writer) error
}

// ServiceManager manages all services and their lifecycle
type ServiceManager interface {
	Course() CourseService
	Module() ModuleService
	Lesson() LessonService
	Progress() ProgressService
	Quiz() QuizService
	Certificate() CertificateService
	Video() VideoService
	User() UserService
	Auth() AuthService
	Dashboard() DashboardService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
