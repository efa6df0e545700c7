package generator

import (
	"fmt"
	"slices"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/samber/lo"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// localeTrees maps a locale to the function that populates its generator tree.
// gofakeit ships English data only, so "en" is the one built-in locale.
var localeTrees = map[string]func(root *Namespace, f *fakeSource){
	"en": buildEnglish,
}

// Locales returns the locales with a built-in registry, sorted.
func Locales() []string {
	keys := lo.Keys(localeTrees)
	slices.Sort(keys)
	return keys
}

// fakeSource serializes access to a gofakeit Faker so that generators from
// one registry can be called from concurrent workers.
type fakeSource struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// str adapts a Faker method to a Generator.
func (s *fakeSource) str(fn func(f *gofakeit.Faker) string) Generator {
	return func() any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.faker)
	}
}

// Builtin returns the built-in registry for locale. A zero seed draws a random
// seed; any other seed makes the generated sequence reproducible.
func Builtin(locale string, seed uint64) (*Registry, error) {
	build, ok := localeTrees[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", types.ErrUnknownLocale, locale, Locales())
	}
	src := &fakeSource{faker: gofakeit.New(seed)}
	root := NewNamespace("")
	build(root, src)
	return NewRegistry(locale, root), nil
}

func buildEnglish(root *Namespace, s *fakeSource) {
	root.Sub("person").
		Add("full_name", s.str((*gofakeit.Faker).Name)).
		Add("first_name", s.str((*gofakeit.Faker).FirstName)).
		Add("last_name", s.str((*gofakeit.Faker).LastName)).
		Add("email", s.str((*gofakeit.Faker).Email)).
		Add("username", s.str((*gofakeit.Faker).Username)).
		Add("telephone", s.str((*gofakeit.Faker).Phone)).
		Add("gender", s.str((*gofakeit.Faker).Gender)).
		Add("occupation", s.str((*gofakeit.Faker).JobTitle))

	root.Sub("finance").
		Add("company", s.str((*gofakeit.Faker).Company)).
		Add("currency_code", s.str((*gofakeit.Faker).CurrencyShort))

	root.Sub("address").
		Add("street", s.str((*gofakeit.Faker).Street)).
		Add("city", s.str((*gofakeit.Faker).City)).
		Add("state", s.str((*gofakeit.Faker).State)).
		Add("zip_code", s.str((*gofakeit.Faker).Zip)).
		Add("country", s.str((*gofakeit.Faker).Country))

	root.Sub("internet").
		Add("url", s.str((*gofakeit.Faker).URL)).
		Add("hostname", s.str((*gofakeit.Faker).DomainName)).
		Add("ip_v4", s.str((*gofakeit.Faker).IPv4Address))

	root.Sub("text").
		Add("word", s.str((*gofakeit.Faker).Word))

	root.Sub("cryptographic").
		Add("uuid", s.str((*gofakeit.Faker).UUID))
}
