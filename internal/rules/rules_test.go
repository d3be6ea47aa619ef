package rules

import (
	"strings"
	"testing"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
)

func TestHeal_StatusCodeSubstitution(t *testing.T) {
	code := `def test_verify_aadhaar():
    response = requests.post(f"{BASE_URL}/verify", json=payload)
    assert response.status_code == 403
`
	f := failure.Failure{
		TestName:     "test_verify_aadhaar",
		ErrorMessage: "AssertionError: assert 400 == 403",
		Kind:         failure.Classify("AssertionError: assert 400 == 403"),
	}

	cand, ok := NewHealer(0).Heal(code, f, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Confidence != ConfidenceStatusCode {
		t.Errorf("confidence = %v, want %v", cand.Confidence, ConfidenceStatusCode)
	}
	if cand.Rule != RuleStatusCode {
		t.Errorf("rule = %q, want %q", cand.Rule, RuleStatusCode)
	}
	if !strings.Contains(cand.Code, "assert response.status_code == 400") {
		t.Errorf("healed code missing new assertion:\n%s", cand.Code)
	}
	if strings.Contains(cand.Code, "== 403") {
		t.Errorf("healed code still asserts old status:\n%s", cand.Code)
	}
}

func TestHeal_StatusCodeTupleForm(t *testing.T) {
	code := `def test_create():
    self.assertEqual(response.status_code, 201)
`
	f := failure.Failure{
		ErrorMessage: "AssertionError: status mismatch, assert 400 == 201",
		Kind:         failure.StatusCodeMismatch,
	}

	cand, ok := NewHealer(0).Heal(code, f, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if !strings.Contains(cand.Code, "response.status_code, 400") {
		t.Errorf("tuple form not rewritten:\n%s", cand.Code)
	}
}

func TestHeal_StatusCodeNotEqualForm(t *testing.T) {
	code := "def test_x():\n    assert response.status_code == 200\n"
	f := failure.Failure{
		ErrorMessage: "assertion failed: 500 != 200 for status",
		Kind:         failure.StatusCodeMismatch,
	}

	cand, ok := NewHealer(0).Heal(code, f, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if !strings.Contains(cand.Code, "assert response.status_code == 500") {
		t.Errorf("healed code = %q", cand.Code)
	}
}

func TestHeal_FieldRenameSimilarity(t *testing.T) {
	code := `def test_get_user():
    data = response.json()
    assert data['aadhaar_number'] == "123456789012"
`
	f := failure.Failure{
		TestName:     "test_get_user",
		ErrorMessage: "KeyError: 'aadhaar_number'",
		Kind:         failure.SchemaChange,
	}
	actual := map[string]any{"aadhaarNumber": "123456789012", "name": "Jane"}

	cand, ok := NewHealer(0).Heal(code, f, actual)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Confidence != ConfidenceFieldRename {
		t.Errorf("confidence = %v, want %v", cand.Confidence, ConfidenceFieldRename)
	}
	if !strings.Contains(cand.Code, "data['aadhaarNumber']") {
		t.Errorf("key not renamed:\n%s", cand.Code)
	}
}

func TestHeal_FieldRenameCaseInsensitiveExactWins(t *testing.T) {
	code := "def test_x():\n    assert data['UserID'] == 1\n"
	f := failure.Failure{
		ErrorMessage: "KeyError: 'UserID'",
		Kind:         failure.SchemaChange,
	}
	// Exact case-insensitive match must beat a similar-but-different key.
	actual := map[string]any{"userid": 1, "user_uid": 2}

	cand, ok := NewHealer(0).Heal(code, f, actual)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if !strings.Contains(cand.Code, "data['userid']") {
		t.Errorf("expected exact-match resolution, got:\n%s", cand.Code)
	}
}

func TestHeal_FieldRenameBothQuoteStyles(t *testing.T) {
	code := "def test_x():\n    assert data['full_name'] == data[\"full_name\"]\n"
	f := failure.Failure{
		ErrorMessage: "KeyError: 'full_name'",
		Kind:         failure.SchemaChange,
	}
	actual := map[string]any{"fullName": "x"}

	cand, ok := NewHealer(0).Heal(code, f, actual)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if strings.Contains(cand.Code, "full_name") {
		t.Errorf("an occurrence survived:\n%s", cand.Code)
	}
}

func TestHeal_FieldRenameBelowSimilarityFloor(t *testing.T) {
	code := "def test_x():\n    assert data['aadhaar_number'] == 1\n"
	f := failure.Failure{
		ErrorMessage: "KeyError: 'aadhaar_number'",
		Kind:         failure.SchemaChange,
	}
	actual := map[string]any{"zzz": 1}

	if _, ok := NewHealer(0).Heal(code, f, actual); ok {
		t.Error("expected no candidate when no key clears the similarity floor")
	}
}

func TestHeal_FieldRenameNoActualResponse(t *testing.T) {
	code := "def test_x():\n    assert data['aadhaar_number'] == 1\n"
	f := failure.Failure{
		ErrorMessage: "KeyError: 'aadhaar_number'",
		Kind:         failure.SchemaChange,
	}

	if _, ok := NewHealer(0).Heal(code, f, nil); ok {
		t.Error("expected no candidate without response evidence")
	}
}

func TestHeal_ValueSubstitution(t *testing.T) {
	code := `def test_name():
    assert data['name'] == 'John'
`
	f := failure.Failure{
		ErrorMessage: "AssertionError: assert 'Jane' == 'John'",
		Kind:         failure.ValueMismatch,
	}

	cand, ok := NewHealer(0).Heal(code, f, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Confidence != ConfidenceValue {
		t.Errorf("confidence = %v, want %v", cand.Confidence, ConfidenceValue)
	}
	if !strings.Contains(cand.Code, "== 'Jane'") {
		t.Errorf("value not substituted:\n%s", cand.Code)
	}
}

func TestHeal_ValueSubstitutionBareForm(t *testing.T) {
	code := "def test_count():\n    assert data['count'] == 10\n"
	f := failure.Failure{
		ErrorMessage: "AssertionError: assert 12 == 10",
		Kind:         failure.ValueMismatch,
	}

	cand, ok := NewHealer(0).Heal(code, f, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if !strings.Contains(cand.Code, "== 12") {
		t.Errorf("bare value not substituted:\n%s", cand.Code)
	}
}

func TestHeal_NoRuleMatches(t *testing.T) {
	code := "def test_x():\n    assert True\n"
	f := failure.Failure{
		ErrorMessage: "requests.exceptions.ConnectionError: connection refused",
		Kind:         failure.ConnectionIssue,
	}

	if _, ok := NewHealer(0).Heal(code, f, nil); ok {
		t.Error("expected no candidate for a connection failure")
	}
}

func TestHeal_EmptyCode(t *testing.T) {
	f := failure.Failure{
		ErrorMessage: "AssertionError: assert 400 == 403",
		Kind:         failure.StatusCodeMismatch,
	}

	if _, ok := NewHealer(0).Heal("", f, nil); ok {
		t.Error("expected no candidate for empty code")
	}
}

func TestHeal_NoChangeYieldsNothing(t *testing.T) {
	// Failure text parses but the code already asserts the actual value.
	code := "def test_x():\n    assert response.status_code == 400\n"
	f := failure.Failure{
		ErrorMessage: "AssertionError: assert 400 == 403",
		Kind:         failure.StatusCodeMismatch,
	}

	if _, ok := NewHealer(0).Heal(code, f, nil); ok {
		t.Error("expected no candidate when no rule changes the code")
	}
}

func TestExtractStatusCodes_Orientation(t *testing.T) {
	actual, expected, ok := extractStatusCodes("assert 400 == 403")
	if !ok || actual != "400" || expected != "403" {
		t.Errorf("extractStatusCodes = (%q, %q, %v), want (400, 403, true)", actual, expected, ok)
	}
}

func TestExtractValuePair_QuotedOperands(t *testing.T) {
	actual, expected, ok := extractValuePair(`assert "Jane Doe" == "John Doe"`)
	if !ok || actual != "Jane Doe" || expected != "John Doe" {
		t.Errorf("extractValuePair = (%q, %q, %v)", actual, expected, ok)
	}
}

func TestExtractMissingKey(t *testing.T) {
	key, ok := extractMissingKey(`KeyError: 'aadhaar_number'`)
	if !ok || key != "aadhaar_number" {
		t.Errorf("extractMissingKey = (%q, %v)", key, ok)
	}
	if _, ok := extractMissingKey("no key error here"); ok {
		t.Error("expected no key from unrelated text")
	}
}
