package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core/pages"
)

func Test_pagesApi(t *testing.T) {
	e := setup(t)

	runTests(t, e, []httpTest{
		{name: "slugs", method: http.MethodGet, path: "/v1/pages", wantCode: http.StatusOK, wantData: []byte(`["about", "academics", "home"]`)},
		{name: "unknown", method: http.MethodGet, path: "/v1/pages/admissions", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "page not found"})},
	})

	for _, slug := range []string{"home", "HOME"} {
		t.Run(slug, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/v1/pages/"+slug)
			e.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)

			var page pages.Page
			decode(t, rec, &page)
			assert.Equal(t, "home", page.Slug)
			assert.Equal(t, "Port Moresby National High School", page.Title)
			assert.NotEmpty(t, page.Sections)
		})
	}
}
