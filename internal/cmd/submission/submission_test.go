package submission

import (
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/cmd/cmdtest"
	"github.com/gillisandrew/msstore-cli/internal/publish"
	"github.com/gillisandrew/msstore-cli/internal/render"
	"github.com/gillisandrew/msstore-cli/internal/transport"
)

const (
	packagedID   = "9NBLGGH4NNS1"
	unpackagedID = "424242"

	appPath = "/v1.0/my/applications/" + packagedID
	subPath = appPath + "/submissions/1152921505"
	product = "/submission/v1/product/" + unpackagedID
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

func run(env *cmdtest.Env, args ...string) error {
	return cmdtest.Run(NewSubmissionCommand(env.Context), args...)
}

func TestPublishPackaged(t *testing.T) {
	env := cmdtest.NewEnv(t)
	s := env.Server
	s.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","primaryName":"Contoso"}`))
	s.Handle("POST "+appPath+"/submissions", cmdtest.OK(`{"id":"1152921505"}`))
	s.Handle("GET "+subPath, cmdtest.OK(`{"id":"1152921505","notesForCertification":"old","friendlyName":"Submission 2",`+
		`"visibility":"Public","meetAccessibilityGuidelines":true,"gamingOptions":[{"genres":["Games_Puzzle"]}]}`))
	s.Handle("PUT "+subPath, cmdtest.OK(`{"id":"1152921505"}`))
	s.Handle("POST "+subPath+"/Commit", cmdtest.OK(`{"status":"CommitStarted"}`))
	s.Handle("GET "+subPath+"/status",
		cmdtest.OK(`{"status":"CommitStarted"}`),
		cmdtest.OK(`{"status":"PreProcessing"}`),
	)

	err := run(env, "publish", packagedID, "--patch", `{"notesForCertification":"new build","friendlyName":null}`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET " + appPath,
		"POST " + appPath + "/submissions",
		"GET " + subPath,
		"PUT " + subPath,
		"POST " + subPath + "/Commit",
		"GET " + subPath + "/status",
		"GET " + subPath + "/status",
	}, s.Routes())

	put := s.Requests()[3]
	assert.Contains(t, put.Body, `"notesForCertification":"new build"`)
	assert.NotContains(t, put.Body, "friendlyName")
	assert.Contains(t, put.Body, `"visibility":"Public"`)
	assert.Contains(t, put.Body, `"meetAccessibilityGuidelines":true`)
	assert.Contains(t, put.Body, `"gamingOptions":[{"genres":["Games_Puzzle"]}]`)
	assert.Contains(t, env.Out.String(), "PreProcessing")
}

func TestPublishPackagedPendingSubmission(t *testing.T) {
	env := cmdtest.NewEnv(t)
	env.Server.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","pendingApplicationSubmission":{"id":"999"}}`))

	err := run(env, "publish", packagedID)
	assert.ErrorIs(t, err, publish.ErrPendingSubmission)
	assert.ErrorContains(t, err, "999")
	assert.Equal(t, []string{"GET " + appPath}, env.Server.Routes())
}

func TestPublishPackagedReplace(t *testing.T) {
	env := cmdtest.NewEnv(t)
	s := env.Server
	s.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","pendingApplicationSubmission":{"id":"999"}}`))
	s.Handle("DELETE "+appPath+"/submissions/999", cmdtest.Reply{Status: 204})
	s.Handle("POST "+appPath+"/submissions", cmdtest.OK(`{"id":"1152921505"}`))
	s.Handle("POST "+subPath+"/Commit", cmdtest.OK(`{"status":"CommitStarted"}`))

	require.NoError(t, run(env, "publish", packagedID, "--replace", "--no-wait"))
	assert.Equal(t, []string{
		"GET " + appPath,
		"DELETE " + appPath + "/submissions/999",
		"POST " + appPath + "/submissions",
		"POST " + subPath + "/Commit",
	}, s.Routes())
}

func TestPublishPackagedFailure(t *testing.T) {
	env := cmdtest.NewEnv(t)
	s := env.Server
	s.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`"}`))
	s.Handle("POST "+appPath+"/submissions", cmdtest.OK(`{"id":"1152921505"}`))
	s.Handle("POST "+subPath+"/Commit", cmdtest.OK(`{"status":"CommitStarted"}`))
	s.Handle("GET "+subPath+"/status", cmdtest.OK(`{"status":"CommitFailed","statusDetails":{"errors":[{"code":"InvalidParameterValue","details":"bad listing"}]}}`))

	err := run(env, "publish", packagedID)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorContains(t, err, "CommitFailed")
	assert.Contains(t, env.Out.String(), "bad listing")
}

func TestPublishRejectsFlagsForOtherKind(t *testing.T) {
	env := cmdtest.NewEnv(t)

	assert.Error(t, run(env, "publish", packagedID, "--packages", `{"packages":[]}`))
	assert.Error(t, run(env, "publish", unpackagedID, "--patch", `{}`))
	assert.Empty(t, env.Server.Routes())
}

func TestPublishUnpackaged(t *testing.T) {
	env := cmdtest.NewEnv(t)
	s := env.Server
	s.Handle("PATCH "+product+"/packages", cmdtest.OK(`{"isSuccess":true,"responseData":{"packages":[]}}`))
	s.Handle("POST "+product+"/packages/commit", cmdtest.OK(`{"isSuccess":true,"responseData":{"pollingUrl":"/status"}}`))
	s.Handle("GET "+product+"/status",
		cmdtest.OK(`{"isSuccess":true,"responseData":{"isReady":false}}`),
		cmdtest.OK(`{"isSuccess":true,"responseData":{"isReady":true}}`),
	)
	s.Handle("POST "+product+"/submit", cmdtest.OK(`{"isSuccess":true,"responseData":{"submissionId":"77"}}`))
	s.Handle("GET "+product+"/submission/77/status",
		cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"INPROGRESS"}}`),
		cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"PUBLISHED"}}`),
	)

	packages := `{"packages":[{"packageUrl":"https://contoso.com/setup.msi","languages":["en-us"],"architectures":["X64"],"isSilentInstall":true,"packageType":"msi"}]}`
	require.NoError(t, run(env, "publish", unpackagedID, "--packages", packages))

	assert.Equal(t, []string{
		"PATCH " + product + "/packages",
		"POST " + product + "/packages/commit",
		"GET " + product + "/status",
		"GET " + product + "/status",
		"POST " + product + "/submit",
		"GET " + product + "/submission/77/status",
		"GET " + product + "/submission/77/status",
	}, s.Routes())
	assert.Contains(t, s.Requests()[0].Body, "https://contoso.com/setup.msi")
	assert.Contains(t, env.Out.String(), "PUBLISHED")
}

func TestPublishUnpackagedReportedFailure(t *testing.T) {
	env := cmdtest.NewEnv(t)
	s := env.Server
	s.Handle("GET "+product+"/status", cmdtest.OK(`{"isSuccess":true,"responseData":{"isReady":true}}`))
	s.Handle("POST "+product+"/submit", cmdtest.OK(`{"isSuccess":true,"responseData":{"submissionId":"77"}}`))
	s.Handle("GET "+product+"/submission/77/status", cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"FAILED","hasFailed":true}}`))

	err := run(env, "publish", unpackagedID)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorContains(t, err, "FAILED")
}

func TestStatus(t *testing.T) {
	t.Run("packaged defaults to pending submission", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","pendingApplicationSubmission":{"id":"1152921505"}}`))
		env.Server.Handle("GET "+subPath+"/status", cmdtest.OK(`{"status":"PreProcessing"}`))

		require.NoError(t, run(env, "status", packagedID))
		assert.Contains(t, env.Out.String(), "PreProcessing")
	})

	t.Run("packaged without pending submission", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`"}`))

		assert.ErrorIs(t, run(env, "status", packagedID), cmd.ErrNoSubmission)
	})

	t.Run("unpackaged without ongoing submission shows readiness", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+product+"/status", cmdtest.OK(`{"isSuccess":true,"responseData":{"isReady":true}}`))

		require.NoError(t, run(env, "status", unpackagedID))
		assert.Contains(t, env.Out.String(), `"isReady": true`)
	})

	t.Run("unpackaged follows ongoing submission", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+product+"/status", cmdtest.OK(`{"isSuccess":true,"responseData":{"isReady":false,"ongoingSubmissionId":"77"}}`))
		env.Server.Handle("GET "+product+"/submission/77/status", cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"INPROGRESS"}}`))

		require.NoError(t, run(env, "status", unpackagedID))
		assert.Contains(t, env.Out.String(), "INPROGRESS")
	})
}

func TestGet(t *testing.T) {
	t.Run("packaged falls back to last published", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","lastPublishedApplicationSubmission":{"id":"1152921505"}}`))
		env.Server.Handle("GET "+subPath, cmdtest.OK(`{"id":"1152921505","status":"Published"}`))

		require.NoError(t, run(env, "get", packagedID))
		assert.Contains(t, env.Out.String(), `"status": "Published"`)
	})

	t.Run("packaged application with empty body", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, cmdtest.OK(""))

		assert.ErrorContains(t, run(env, "get", packagedID), "not found")
	})

	t.Run("unpackaged shows the draft", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		s := env.Server
		s.Handle("GET "+product+"/packages", cmdtest.OK(`{"isSuccess":true,"responseData":{"packages":[{"packageUrl":"https://contoso.com/setup.exe"}]}}`))
		s.Handle("GET "+product+"/metadata/listings", cmdtest.OK(`{"isSuccess":true,"responseData":{"listings":[{"language":"en-us"}]}}`))
		s.Handle("GET "+product+"/metadata/availability", cmdtest.OK(`{"isSuccess":true,"responseData":{}}`))
		s.Handle("GET "+product+"/metadata/properties", cmdtest.OK(`{"isSuccess":true,"responseData":{"category":"Productivity"}}`))

		require.NoError(t, run(env, "get", unpackagedID))
		out := env.Out.String()
		assert.Contains(t, out, "https://contoso.com/setup.exe")
		assert.Contains(t, out, "en-us")
		assert.Contains(t, out, "Productivity")
	})

	t.Run("store api reported error", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+product+"/packages", cmdtest.OK(`{"isSuccess":false,"errors":[{"code":"NotFound","message":"no draft"}]}`))

		assert.ErrorContains(t, run(env, "get", unpackagedID), "no draft")
	})
}

func TestUpdate(t *testing.T) {
	t.Run("packaged patch", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		s := env.Server
		s.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","pendingApplicationSubmission":{"id":"1152921505"}}`))
		s.Handle("GET "+subPath, cmdtest.OK(`{"id":"1152921505","visibility":"Public","trailers":[{"id":"t1"}]}`))
		s.Handle("PUT "+subPath, cmdtest.OK(`{"id":"1152921505","visibility":"Private"}`))

		require.NoError(t, run(env, "update", packagedID, "--patch", `{"visibility":"Private"}`))
		reqs := s.Requests()
		require.Len(t, reqs, 3)
		assert.Contains(t, reqs[2].Body, `"visibility":"Private"`)
		assert.Contains(t, reqs[2].Body, `"trailers":[{"id":"t1"}]`, "unmodeled fields survive the update")
	})

	t.Run("packaged requires a patch", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		assert.ErrorIs(t, run(env, "update", packagedID), ErrNothingToUpdate)
	})

	t.Run("unpackaged metadata", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("PUT "+product+"/metadata", cmdtest.OK(`{"isSuccess":true,"responseData":{}}`))

		require.NoError(t, run(env, "update", unpackagedID, "--metadata", `{"properties":{"category":"Utilities"}}`))
		reqs := env.Server.Requests()
		require.Len(t, reqs, 1)
		assert.Contains(t, reqs[0].Body, "Utilities")
	})

	t.Run("invalid json", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		assert.ErrorContains(t, run(env, "update", unpackagedID, "--packages", "{nope"), "not valid JSON")
		assert.Empty(t, env.Server.Routes())
	})
}

func TestCommit(t *testing.T) {
	t.Run("packaged", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, cmdtest.OK(`{"id":"`+packagedID+`","pendingApplicationSubmission":{"id":"1152921505"}}`))
		env.Server.Handle("POST "+subPath+"/Commit", cmdtest.OK(`{"status":"CommitStarted"}`))

		require.NoError(t, run(env, "commit", packagedID))
	})

	t.Run("unpackaged with ongoing submission", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("POST "+product+"/packages/commit", cmdtest.OK(`{"isSuccess":true,"responseData":{"ongoingSubmissionId":"76"}}`))

		assert.ErrorIs(t, run(env, "commit", unpackagedID), publish.ErrPendingSubmission)
	})
}

func TestDelete(t *testing.T) {
	pending := cmdtest.OK(`{"id":"` + packagedID + `","pendingApplicationSubmission":{"id":"1152921505"}}`)

	t.Run("declined", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, pending)
		env.Prompter.Confirms = []bool{false}

		require.NoError(t, run(env, "delete", packagedID))
		assert.Len(t, env.Prompter.Questions, 1)
		assert.Equal(t, []string{"GET " + appPath}, env.Server.Routes())
	})

	t.Run("confirmed by flag", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, pending)
		env.Server.Handle("DELETE "+subPath, cmdtest.Reply{Status: 204})

		require.NoError(t, run(env, "delete", packagedID, "--yes"))
		assert.Empty(t, env.Prompter.Questions)
		assert.Contains(t, env.Server.Routes(), "DELETE "+subPath)
	})

	t.Run("error payload", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		env.Server.Handle("GET "+appPath, pending)
		env.Server.Handle("DELETE "+subPath, cmdtest.OK(`{"code":"InvalidState","message":"submission is committed"}`))

		assert.ErrorContains(t, run(env, "delete", packagedID, "-y"), "submission is committed")
	})

	t.Run("unpackaged", func(t *testing.T) {
		env := cmdtest.NewEnv(t)
		assert.ErrorIs(t, run(env, "delete", unpackagedID, "--yes"), ErrUnsupportedForUnpackaged)
	})
}

func TestPoll(t *testing.T) {
	env := cmdtest.NewEnv(t)
	env.Server.Handle("GET "+product+"/submission/77/status",
		cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"INPROGRESS"}}`),
		cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"INPROGRESS"}}`),
		cmdtest.OK(`{"isSuccess":true,"responseData":{"publishingStatus":"PUBLISHED"}}`),
	)

	require.NoError(t, run(env, "poll", unpackagedID, "--submission-id", "77"))
	assert.Len(t, env.Server.Routes(), 3)
	assert.Contains(t, env.Out.String(), "PUBLISHED")
}

func TestForbiddenProduct(t *testing.T) {
	env := cmdtest.NewEnv(t)
	env.Server.Handle("GET "+appPath, cmdtest.Reply{Status: 403, Body: `{"code":"Forbidden"}`})

	err := run(env, "status", packagedID)
	require.Error(t, err)
	assert.True(t, transport.IsForbidden(err))
	assert.Equal(t, render.MsgForbidden, render.Error(err))
}
