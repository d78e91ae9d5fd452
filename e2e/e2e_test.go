package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"dhruva/e2e/steps/approval"
	"dhruva/e2e/steps/common"
	"dhruva/e2e/steps/vetting"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	Paths:  []string{"features"},
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := NewTestContext()

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc = NewTestContext()
		return ctx, tc.Start(ctx)
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			fmt.Printf("Scenario failed: %s\nLast Response: %s\n", s.Name, string(tc.LastResponseBody))
		}
		tc.Close()
		return ctx, nil
	})

	// Steps resolve tc lazily so the Before hook's fresh context is used.
	proxy := &contextProxy{get: func() *TestContext { return tc }}
	common.RegisterSteps(sc, proxy)
	approval.RegisterSteps(sc, proxy)
	vetting.RegisterSteps(sc, proxy)
}

// contextProxy forwards to the scenario's current TestContext.
type contextProxy struct {
	get func() *TestContext
}

func (p *contextProxy) Do(method, path string, body any, headers map[string]string) error {
	return p.get().Do(method, path, body, headers)
}
func (p *contextProxy) POST(path string, body any) error          { return p.get().POST(path, body) }
func (p *contextProxy) GET(path string) error                     { return p.get().GET(path) }
func (p *contextProxy) Admin(method, path string, body any) error { return p.get().Admin(method, path, body) }
func (p *contextProxy) GetResponseField(field string) (any, error) {
	return p.get().GetResponseField(field)
}
func (p *contextProxy) GetLastResponseStatus() int  { return p.get().GetLastResponseStatus() }
func (p *contextProxy) GetLastResponseBody() []byte { return p.get().GetLastResponseBody() }
func (p *contextProxy) Set(name, value string)      { p.get().Set(name, value) }
func (p *contextProxy) Expand(s string) string      { return p.get().Expand(s) }
