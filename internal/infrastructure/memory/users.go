package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type userRepo struct{ s *session }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	var err error
	r.s.do(func(st *state) {
		for _, cur := range st.users {
			if strings.EqualFold(cur.Email, u.Email) {
				err = domain.ErrDuplicate
				return
			}
		}
		u.ID = st.next("users")
		u.CreatedAt = r.s.now()
		u.UpdatedAt = u.CreatedAt
		st.users[u.ID] = copyPtr(u)
	})
	return err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	r.s.do(func(st *state) {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				out = copyPtr(u)
				return
			}
		}
	})
	return out, nil
}
