package pycode

import (
	"strings"
	"testing"
)

const sampleSource = `import requests

BASE_URL = "http://localhost:8000"


def test_get_user():
    response = requests.get(f"{BASE_URL}/user/1")
    assert response.status_code == 200
    data = response.json()
    assert data['aadhaar_number'] == "123456789012"


def test_delete_user():
    response = requests.delete(f"{BASE_URL}/user/1")
    assert response.status_code == 204


class TestAdmin:
    def test_admin_access(self):
        response = requests.get(f"{BASE_URL}/admin")
        assert response.status_code == 403
`

func TestExtractFunction(t *testing.T) {
	got := ExtractFunction(sampleSource, "test_get_user")

	if !strings.HasPrefix(got, "def test_get_user():") {
		t.Errorf("extraction should start at the def header, got:\n%s", got)
	}
	if !strings.Contains(got, "data['aadhaar_number']") {
		t.Errorf("extraction missing function body, got:\n%s", got)
	}
	if strings.Contains(got, "test_delete_user") {
		t.Errorf("extraction ran past the next definition, got:\n%s", got)
	}
}

func TestExtractFunction_SecondFunction(t *testing.T) {
	got := ExtractFunction(sampleSource, "test_delete_user")

	if !strings.HasPrefix(got, "def test_delete_user():") {
		t.Errorf("unexpected extraction start:\n%s", got)
	}
	if !strings.Contains(got, "assert response.status_code == 204") {
		t.Errorf("extraction missing body:\n%s", got)
	}
	if strings.Contains(got, "TestAdmin") {
		t.Errorf("extraction ran into the class that follows:\n%s", got)
	}
}

func TestExtractFunction_Method(t *testing.T) {
	got := ExtractFunction(sampleSource, "test_admin_access")

	if !strings.Contains(got, "def test_admin_access(self):") {
		t.Errorf("method extraction failed:\n%s", got)
	}
	if strings.Contains(got, "class TestAdmin") {
		t.Errorf("method extraction should not include the class header:\n%s", got)
	}
}

func TestExtractFunction_Decorated(t *testing.T) {
	source := `import pytest


@pytest.mark.integration
@pytest.mark.slow
def test_flagged():
    assert True


def test_other():
    assert False
`
	got := ExtractFunction(source, "test_flagged")

	if !strings.HasPrefix(got, "@pytest.mark.integration") {
		t.Errorf("decorators should be part of the extraction, got:\n%s", got)
	}
	if !strings.Contains(got, "def test_flagged():") {
		t.Errorf("extraction missing def header:\n%s", got)
	}
	if strings.Contains(got, "test_other") {
		t.Errorf("extraction ran past the decorated function:\n%s", got)
	}
}

func TestExtractFunction_Absent(t *testing.T) {
	if got := ExtractFunction(sampleSource, "test_nonexistent"); got != "" {
		t.Errorf("expected empty extraction for unknown test, got:\n%s", got)
	}
	if got := ExtractFunction(sampleSource, ""); got != "" {
		t.Errorf("expected empty extraction for empty name, got:\n%s", got)
	}
	if got := ExtractFunction("", "test_get_user"); got != "" {
		t.Errorf("expected empty extraction for empty source, got:\n%s", got)
	}
}

func TestExtractFunction_Stable(t *testing.T) {
	first := ExtractFunction(sampleSource, "test_get_user")
	second := ExtractFunction(sampleSource, "test_get_user")
	if first != second {
		t.Error("extraction is not deterministic")
	}
}

func TestExtractFunction_NoFalsePrefixMatch(t *testing.T) {
	source := `def test_user_extended():
    assert 1


def test_user():
    assert 2
`
	got := ExtractFunction(source, "test_user")
	if !strings.Contains(got, "assert 2") {
		t.Errorf("matched the wrong function:\n%s", got)
	}
	if strings.Contains(got, "assert 1") {
		t.Errorf("prefix name matched a longer function name:\n%s", got)
	}
}

func TestFunctions(t *testing.T) {
	got := Functions(sampleSource)
	want := []string{"test_get_user", "test_delete_user", "test_admin_access"}

	if len(got) != len(want) {
		t.Fatalf("Functions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Functions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScanFunction(t *testing.T) {
	got := scanFunction(sampleSource, "test_get_user")

	if !strings.HasPrefix(got, "def test_get_user():") {
		t.Errorf("scan extraction should start at the def header, got:\n%s", got)
	}
	if strings.Contains(got, "test_delete_user") {
		t.Errorf("scan extraction ran past the next definition:\n%s", got)
	}
	if scanFunction(sampleSource, "test_nonexistent") != "" {
		t.Error("scan extraction of unknown test should be empty")
	}
}

func TestScanFunction_DecoratorsAndEOF(t *testing.T) {
	source := "@pytest.mark.slow\ndef test_last():\n    assert True"
	got := scanFunction(source, "test_last")

	if !strings.HasPrefix(got, "@pytest.mark.slow") {
		t.Errorf("scan extraction should include decorators:\n%s", got)
	}
	if !strings.HasSuffix(got, "assert True") {
		t.Errorf("scan extraction should run to end of input:\n%s", got)
	}
}
