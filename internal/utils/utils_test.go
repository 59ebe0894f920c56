package utils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GetRoutePattern(t *testing.T) {
	testCases := []struct {
		expectedRoutePattern string
		method               string
	}{
		{expectedRoutePattern: "/mock", method: "GET"},
		{expectedRoutePattern: "undefined", method: "POST"},
	}

	mHttpHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tc := range testCases {
		t.Run("getting route pattern", func(t *testing.T) {
			mAssertRoutePattern := func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
					routePattern := GetRoutePattern(req)

					assert.Equal(t, tc.expectedRoutePattern, routePattern)
					next.ServeHTTP(rw, req)
				})
			}

			r := chi.NewRouter()
			r.Use(mAssertRoutePattern)
			r.Get("/mock", mHttpHandler.ServeHTTP)

			req, err := http.NewRequest(tc.method, "/mock", nil)
			require.NoError(t, err)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
		})
	}
}

func Test_MapSlice(t *testing.T) {
	testCases := []struct {
		name              string
		prepareMapSliceFn func() interface{}
		wantMapped        interface{}
	}{
		{
			name: "map to string slice to uppercased string slice",
			prepareMapSliceFn: func() interface{} {
				return MapSlice([]string{"a", "b", "c"}, strings.ToUpper)
			},
			wantMapped: []string{"A", "B", "C"},
		},
		{
			name: "map int slice to string slice",
			prepareMapSliceFn: func() interface{} {
				return MapSlice([]int{1, 2, 3}, func(input int) string { return fmt.Sprintf("%d", input) })
			},
			wantMapped: []string{"1", "2", "3"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotMapped := tc.prepareMapSliceFn()
			require.Equal(t, tc.wantMapped, gotMapped)
		})
	}
}

func Test_IntPtr(t *testing.T) {
	result := IntPtr(7)
	require.NotNil(t, result)
	assert.Equal(t, 7, *result)
}

// Write a test for ParseBoolQueryParam function.
func Test_ParseBoolQueryParam(t *testing.T) {
	trueValue := true
	falseValue := false

	testCases := []struct {
		name           string
		queryParam     string
		expectedResult *bool
		expectedError  string
	}{
		{
			name:           "valid true value",
			queryParam:     "true",
			expectedResult: &trueValue,
			expectedError:  "",
		},
		{
			name:           "valid false value",
			queryParam:     "false",
			expectedResult: &falseValue,
			expectedError:  "",
		},
		{
			name:           "valid empty value",
			queryParam:     "",
			expectedResult: nil,
			expectedError:  "",
		},
		{
			name:           "invalid value",
			queryParam:     "invalid",
			expectedResult: nil,
			expectedError:  "invalid 'enabled' parameter value",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", fmt.Sprintf("/?enabled=%s", tc.queryParam), nil)
			require.NoError(t, err)

			result, err := ParseBoolQueryParam(req, "enabled")
			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedResult, result)
			}
		})
	}
}

func Test_TruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
	assert.Equal(t, "hello", TruncateString("hello", 5))
	assert.Equal(t, "hel...", TruncateString("hello", 3))
}
