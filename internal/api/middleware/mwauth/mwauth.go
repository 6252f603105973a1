//nolint:revive // exported
package mwauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/stoken"
)

type ContextKey int

const (
	UserIDKeyCtx ContextKey = iota
)

const (
	ModeLocal = "local"
	ModeJWT   = "jwt"
)

// CookieName carries the admin session token for browser requests.
const CookieName = "admin_token"

const LocalDummyIDStr = "00000000000000000000000000"

var LocalDummyID = idwrap.NewTextMust(LocalDummyIDStr)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoUserID     = errors.New("user id not found in context")
)

func NewAuthInterceptorOne(secret []byte) connect.UnaryInterceptorFunc {
	data := AuthInterceptorData{secret: secret}
	interceptor := func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			return data.AuthInterceptor(ctx, req, next)
		})
	}
	return connect.UnaryInterceptorFunc(interceptor)
}

func NewAuthInterceptorLocal() connect.UnaryInterceptorFunc {
	interceptor := func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			return AuthInterceptorLocal(ctx, req, next)
		})
	}
	return connect.UnaryInterceptorFunc(interceptor)
}

// Interceptors returns the crash guard followed by the auth interceptor for mode.
func Interceptors(mode string, secret []byte) connect.Option {
	auth := NewAuthInterceptorLocal()
	if mode == ModeJWT {
		auth = NewAuthInterceptorOne(secret)
	}
	crash := connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return CrashInterceptor(ctx, req, next)
		}
	})
	return connect.WithInterceptors(crash, auth)
}

type AuthInterceptorData struct {
	secret []byte
}

func CreateAuthedContext(ctx context.Context, userID idwrap.IDWrap) context.Context {
	return context.WithValue(ctx, UserIDKeyCtx, userID)
}

func (authData AuthInterceptorData) AuthInterceptor(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc) (connect.AnyResponse, error) {
	headerValue := req.Header().Get(stoken.TokenHeaderKey)
	if headerValue == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrNoToken)
	}

	tokenRaw, ok := strings.CutPrefix(headerValue, "Bearer ")
	if !ok || tokenRaw == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrInvalidToken)
	}

	id, err := validate(ctx, tokenRaw, authData.secret)
	if err != nil {
		return nil, err
	}

	return next(CreateAuthedContext(ctx, id), req)
}

func validate(ctx context.Context, token string, secret []byte) (idwrap.IDWrap, error) {
	claims, err := stoken.ValidateJWT(token, stoken.AccessToken, secret)
	if err != nil {
		slog.ErrorContext(ctx, "Error validating JWT token", "error", err)
		return idwrap.IDWrap{}, connect.NewError(connect.CodeUnauthenticated, err)
	}

	id, err := idwrap.NewText(claims.Subject)
	if err != nil {
		slog.ErrorContext(ctx, "Error creating ID from claims.Subject", "error", err)
		return idwrap.IDWrap{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return id, nil
}

func AuthInterceptorLocal(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc) (connect.AnyResponse, error) {
	return next(CreateAuthedContext(ctx, LocalDummyID), req)
}

func CrashInterceptor(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc) (resp connect.AnyResponse, err error) {
	if req.Spec().IsClient {
		return next(ctx, req)
	}

	defer func() {
		if r := recover(); r != nil {
			err = connect.NewError(connect.CodeInternal, fmt.Errorf("panic: %v", r))
			resp = nil
		}
	}()
	return next(ctx, req)
}

// HTTPMiddleware authenticates plain HTTP requests for the admin pages. In jwt
// mode the token comes from the Authorization header or the admin_token cookie.
func HTTPMiddleware(mode string, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode != ModeJWT {
				next.ServeHTTP(w, r.WithContext(CreateAuthedContext(r.Context(), LocalDummyID)))
				return
			}

			token := requestToken(r)
			if token == "" {
				http.Error(w, ErrNoToken.Error(), http.StatusUnauthorized)
				return
			}
			id, err := validate(r.Context(), token, secret)
			if err != nil {
				http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(CreateAuthedContext(r.Context(), id)))
		})
	}
}

func requestToken(r *http.Request) string {
	if h := r.Header.Get(stoken.TokenHeaderKey); h != "" {
		token, _ := strings.CutPrefix(h, "Bearer ")
		return token
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func GetContextUserID(ctx context.Context) (idwrap.IDWrap, error) {
	ulidID, ok := ctx.Value(UserIDKeyCtx).(idwrap.IDWrap)
	if !ok {
		return ulidID, ErrNoUserID
	}
	return ulidID, nil
}
