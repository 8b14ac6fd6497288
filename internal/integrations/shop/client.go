package shop

import (
	"context"

	"github.com/pkg/errors"
)

// Ошибки различимы, чтобы бот мог ответить пользователю точным сообщением:
// не распарсили название vs не распарсили цену vs не дотянулись до страницы.
var (
	ErrNameNotFound  = errors.New("product name not found")
	ErrPriceNotFound = errors.New("product price not found")
)

type Product struct {
	Name  string
	Price float64
}

type Client interface {
	Lookup(ctx context.Context, productRef string) (Product, error)
}
