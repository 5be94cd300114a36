package i18n

import "testing"

func initLang(t *testing.T, lang string) {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
}

func TestTranslateEnglish(t *testing.T) {
	initLang(t, "en")

	got := T("NoResults")
	if got != "No graded exams yet." {
		t.Errorf("T(NoResults) = %q", got)
	}

	got = T("ClearDone")
	if got != "All stored results erased." {
		t.Errorf("T(ClearDone) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	initLang(t, "ru")

	got := T("NoResults")
	if got != "Проверенных экзаменов пока нет." {
		t.Errorf("T(NoResults) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	initLang(t, "en")

	got1 := Tp("ExamsGraded", 1)
	if got1 != "1 exam graded" {
		t.Errorf("Tp(ExamsGraded, 1) = %q", got1)
	}

	got5 := Tp("ExamsGraded", 5)
	if got5 != "5 exams graded" {
		t.Errorf("Tp(ExamsGraded, 5) = %q", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	initLang(t, "en")

	got := Td("ResultSaved", map[string]any{"ID": "abc-123"})
	if got != "Saved as abc-123" {
		t.Errorf("Td(ResultSaved) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	initLang(t, "en")

	got := T("NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}

func TestInvalidLanguage(t *testing.T) {
	if err := Init("not a language tag"); err == nil {
		t.Fatal("expected error for invalid language tag")
	}
}
