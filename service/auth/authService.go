package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
	userrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/user"
	"github.com/euroclydon611/lmsf-fyp-backend/util/hash"
	jwtutil "github.com/euroclydon611/lmsf-fyp-backend/util/jwt"
)

type ErrCode string

const (
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrIndexTaken   ErrCode = "INDEX_NO_TAKEN"
	ErrInvalidCreds ErrCode = "INVALID_CREDENTIALS"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)

	// UpdatePassword replaces the user's password after verifying the
	// current one.
	UpdatePassword(ctx context.Context, userID int64, req model.UpdatePasswordReq) error
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service { return &service{ur: ur, secret: secret} }

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	indexNo := strings.TrimSpace(req.IndexNo)
	if indexNo == "" || strings.TrimSpace(req.Surname) == "" ||
		strings.TrimSpace(req.FirstName) == "" || len(req.Password) < 6 {
		return nil, "", makeErr(ErrBadInput)
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, "", makeErr(ErrBadInput)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		IndexNo:      indexNo,
		Surname:      strings.TrimSpace(req.Surname),
		FirstName:    strings.TrimSpace(req.FirstName),
		OtherName:    strings.TrimSpace(req.OtherName),
		DateOfBirth:  &dob,
		PasswordHash: hashed,
		Role:         model.ParseRole(req.Role),
		Status:       true,
	}

	if err := s.ur.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, "", makeErr(ErrIndexTaken)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	indexNo := strings.TrimSpace(req.IndexNo)
	if indexNo == "" || req.Password == "" {
		return nil, "", makeErr(ErrBadInput)
	}

	u, err := s.ur.ByIndexNo(ctx, indexNo)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds)
	}

	if err := s.ur.TouchLastSeen(ctx, u.ID); err != nil {
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) UpdatePassword(ctx context.Context, userID int64, req model.UpdatePasswordReq) error {
	if userID <= 0 || req.OldPassword == "" || len(req.NewPassword) < 6 {
		return makeErr(ErrBadInput)
	}

	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.OldPassword) {
		return makeErr(ErrInvalidCreds)
	}

	hashed, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.ur.UpdatePassword(ctx, userID, hashed)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
