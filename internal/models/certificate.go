package models

import "time"

type CertificateStatus string

const (
	CertificateActive  CertificateStatus = "active"
	CertificateRevoked CertificateStatus = "revoked"
)

const (
	ValidationCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	ValidationCodeLength   = 8
)

// Certificate is unique per (user, course) and per validation code
type Certificate struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	UserID         uint              `json:"userId" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CourseID       uint              `json:"courseId" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	QuizScore      int               `json:"quizScore" gorm:"not null"`
	ValidationCode string            `json:"validationCode" gorm:"not null;size:8;uniqueIndex"`
	Status         CertificateStatus `json:"status" gorm:"size:20;not null;default:active;index"`

	IssuedAt  time.Time `json:"issuedAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) IsActive() bool {
	return c.Status == CertificateActive
}
