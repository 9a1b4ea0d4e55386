package lambdaboot

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	value string
	err   error
	calls []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls = append(f.calls, aws.ToString(in.Name))
	if f.err != nil {
		return nil, f.err
	}
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func TestFetchGeminiKey(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeSSM
		want    string
		wantErr bool
	}{
		{"ok", &fakeSSM{value: "secret"}, "secret", false},
		{"empty", &fakeSSM{value: ""}, "", true},
		{"ssm error", &fakeSSM{err: errors.New("AccessDenied")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FetchGeminiKey(context.Background(), tt.fake, "/p")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyParam(t *testing.T) {
	t.Setenv("SSM_API_KEY_PARAM", "")
	if got := APIKeyParam(); got != DefaultAPIKeyParam {
		t.Errorf("default = %q", got)
	}
	t.Setenv("SSM_API_KEY_PARAM", "/custom")
	if got := APIKeyParam(); got != "/custom" {
		t.Errorf("override = %q", got)
	}
}

func TestLoadGeminiKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SSM_API_KEY_PARAM", "/test/key")

	fake := &fakeSSM{value: "from-ssm"}
	LoadGeminiKey(fake)

	if got := os.Getenv("GEMINI_API_KEY"); got != "from-ssm" {
		t.Errorf("GEMINI_API_KEY = %q", got)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "/test/key" {
		t.Errorf("calls = %v", fake.calls)
	}
}

func TestLoadGeminiKey_SkipsWhenSet(t *testing.T) {
	t.Setenv("API_KEY", "already")
	fake := &fakeSSM{value: "from-ssm"}
	LoadGeminiKey(fake)
	if len(fake.calls) != 0 {
		t.Errorf("SSM should not be called, calls = %v", fake.calls)
	}
}
