package prompts

// Field names available to prompt templates.
const (
	FieldLanguage   = "language"
	FieldFramework  = "framework"
	FieldCode       = "code"
	FieldDiff       = "diff"
	FieldFocus      = "focus"
	FieldObjectType = "object_type"
	FieldAudit      = "audit"
)

// Template keys, as they appear under `prompts:` in the configuration file.
const (
	KeyUnitTest      = "unit_test"
	KeyKillMutant    = "kill_mutant"
	KeyCommit        = "commit"
	KeyRefactor      = "refactor"
	KeyAuditSecurity = "audit_security"
	KeyApplyFixes    = "apply_fixes"
	KeyDocstring     = "docstring"
	KeyExplain       = "explain"
)

// Built-in template bodies.
const (
	UnitTestTemplate = `Write {framework} tests for the following {language} function, including edge cases:

{code}`

	KillMutantTemplate = `Write {framework} tests to kill the following mutant in {language} code:

{diff}`

	CommitTemplate = `Write a conventional commit message (type, scope, subject) for the following diff, following Conventional Commits format:

{diff}`

	RefactorTemplate = `Refactor the following {language} code focusing on {focus}. Provide the entire updated code without extra commentary:

{code}`

	AuditSecurityTemplate = `Audit the following {language} code for security vulnerabilities. List each issue with line numbers, a description, and a suggested fix:

{code}`

	ApplyFixesTemplate = `Apply the security fixes suggested below to the {language} code. Return only the full updated code without commentary.

Issues:
{audit}

Code:
{code}`

	DocstringTemplate = `Write a Python docstring for the following {object_type} in {language} code, including descriptions of parameters and return values where applicable:

{code}`

	ExplainTemplate = `Explain what the following {language} code does, providing a detailed, step-by-step explanation:

{code}`
)

// DefaultTemplate is a built-in template together with the fields its
// workflow supplies.
type DefaultTemplate struct {
	Key    string
	Fields []string
	Body   string
}

// DefaultTemplates returns the built-in templates in a stable order.
func DefaultTemplates() []DefaultTemplate {
	return []DefaultTemplate{
		{Key: KeyUnitTest, Fields: []string{FieldLanguage, FieldFramework, FieldCode}, Body: UnitTestTemplate},
		{Key: KeyKillMutant, Fields: []string{FieldLanguage, FieldFramework, FieldDiff}, Body: KillMutantTemplate},
		{Key: KeyCommit, Fields: []string{FieldDiff}, Body: CommitTemplate},
		{Key: KeyRefactor, Fields: []string{FieldLanguage, FieldFocus, FieldCode}, Body: RefactorTemplate},
		{Key: KeyAuditSecurity, Fields: []string{FieldLanguage, FieldCode}, Body: AuditSecurityTemplate},
		{Key: KeyApplyFixes, Fields: []string{FieldLanguage, FieldAudit, FieldCode}, Body: ApplyFixesTemplate},
		{Key: KeyDocstring, Fields: []string{FieldLanguage, FieldObjectType, FieldCode}, Body: DocstringTemplate},
		{Key: KeyExplain, Fields: []string{FieldLanguage, FieldCode}, Body: ExplainTemplate},
	}
}

// Default returns the built-in template for key.
func Default(key string) (DefaultTemplate, bool) {
	for _, t := range DefaultTemplates() {
		if t.Key == key {
			return t, true
		}
	}
	return DefaultTemplate{}, false
}

// Vocabulary returns the field names the workflow behind key supplies.
func Vocabulary(key string) []string {
	t, _ := Default(key)
	return t.Fields
}
