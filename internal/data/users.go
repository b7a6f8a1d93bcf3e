package data

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmx-pso/lesson-service/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var AnonymousUser = &User{}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	IsAdmin   bool      `json:"is_admin"`
	IsTeacher bool      `json:"is_teacher"`
	IsStudent bool      `json:"is_student"`
	IsActive  bool      `json:"is_active"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...string) bool {
	for _, role := range roles {
		switch role {
		case RoleAdmin:
			if u.IsAdmin {
				return true
			}
		case RoleTeacher:
			if u.IsTeacher {
				return true
			}
		case RoleStudent:
			if u.IsStudent {
				return true
			}
		}
	}
	return false
}

type password struct {
	plaintext *string
	hash      []byte
}

func (p *password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), 12)
	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash

	return nil
}

func (p *password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

func ValidateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

// ValidateUserDetails checks everything on a user except the password.
func ValidateUserDetails(v *validator.Validator, user *User) {
	v.Check(user.FirstName != "", "first_name", "must be provided")
	v.Check(len(user.FirstName) <= 255, "first_name", "must not be more than 255 bytes long")
	v.Check(len(user.LastName) <= 255, "last_name", "must not be more than 255 bytes long")
	v.Check(len(user.Username) <= 64, "username", "must not be more than 64 bytes long")
	v.Check(len(user.Bio) <= 2000, "bio", "must not be more than 2000 bytes long")

	ValidateEmail(v, user.Email)
}

func ValidateUser(v *validator.Validator, user *User) {
	ValidateUserDetails(v, user)

	if user.Password.plaintext != nil {
		ValidatePasswordPlaintext(v, *user.Password.plaintext)
	}

	if user.Password.hash == nil {
		panic("missing password hash for user")
	}
}

type UserFilter struct {
	Email string
	Role  string
}

type UserModel struct {
	DB *sql.DB
}

const userColumns = `id, created_at, updated_at, email, password_hash, first_name, last_name, username, bio,
		is_admin, is_teacher, is_student, is_active, activated`

func scanUser(row interface{ Scan(...any) error }, user *User, extra ...any) error {
	dest := append(extra,
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Email,
		&user.Password.hash,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.Bio,
		&user.IsAdmin,
		&user.IsTeacher,
		&user.IsStudent,
		&user.IsActive,
		&user.Activated,
	)
	return row.Scan(dest...)
}

func (m *UserModel) Insert(user *User) error {
	qry := `
		INSERT INTO users (email, password_hash, first_name, last_name, username, bio, is_admin, is_teacher, is_student, is_active, activated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	args := []any{
		user.Email,
		user.Password.hash,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Bio,
		user.IsAdmin,
		user.IsTeacher,
		user.IsStudent,
		user.IsActive,
		user.Activated,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func (m *UserModel) Get(id int64) (*User, error) {
	if id < 1 {
		return nil, ErrNoRecord
	}

	qry := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var user User
	err := scanUser(m.DB.QueryRowContext(ctx, qry, id), &user)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}

	return &user, nil
}

func (m *UserModel) GetByEmail(email string) (*User, error) {
	qry := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var user User
	err := scanUser(m.DB.QueryRowContext(ctx, qry, email), &user)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}

	return &user, nil
}

func (m *UserModel) Update(user *User) error {
	qry := `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4, username = $5, bio = $6,
			is_admin = $7, is_teacher = $8, is_student = $9, is_active = $10, activated = $11, updated_at = $12
		WHERE id = $13 AND updated_at = $14
		RETURNING updated_at`

	args := []any{
		user.Email,
		user.Password.hash,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Bio,
		user.IsAdmin,
		user.IsTeacher,
		user.IsStudent,
		user.IsActive,
		user.Activated,
		time.Now(),
		user.ID,
		user.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&user.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

func (m *UserModel) GetForToken(tokenScope, tokenPlaintext string) (*User, error) {
	tokenHash := sha256.Sum256([]byte(tokenPlaintext))

	qry := `
		SELECT users.id, users.created_at, users.updated_at, users.email, users.password_hash, users.first_name,
			users.last_name, users.username, users.bio, users.is_admin, users.is_teacher, users.is_student,
			users.is_active, users.activated
		FROM users
		INNER JOIN tokens ON users.id = tokens.user_id
		WHERE tokens.hash = $1
		AND tokens.scope = $2
		AND tokens.expiry > $3`

	args := []any{tokenHash[:], tokenScope, time.Now()}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var user User
	err := scanUser(m.DB.QueryRowContext(ctx, qry, args...), &user)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}

	return &user, nil
}

func (m *UserModel) GetAll(filter UserFilter, filters Filters) ([]*User, Metadata, error) {
	qry := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM users
		WHERE (email ILIKE '%%' || $1 || '%%' OR $1 = '')
		AND ($2 = '' OR ($2 = 'admin' AND is_admin) OR ($2 = 'teacher' AND is_teacher) OR ($2 = 'student' AND is_student))
		ORDER BY %s %s, id ASC
		LIMIT $3 OFFSET $4`, userColumns, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, qry, filter.Email, filter.Role, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	users := []*User{}

	for rows.Next() {
		var user User
		if err := scanUser(rows, &user, &totalRecords); err != nil {
			return nil, Metadata{}, err
		}
		users = append(users, &user)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	return users, calculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}
