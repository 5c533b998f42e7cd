package rules

import "strings"

// Builtin returns a registry preloaded with the rule tables for the project
// types templatize detects out of the box.
func Builtin() *Registry {
	r := NewRegistry()
	for _, t := range builtinTables() {
		// Builtin tables are static; a compile failure here is a
		// programming error and surfaces on first use in tests.
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}

	return r
}

func builtinTables() []*RuleTable {
	return []*RuleTable{
		{
			ProjectType: "node",
			Placeholders: []PlaceholderKey{
				{Token: "{{PROJECT_NAME}}", Input: "name", MetadataKey: "package.name", Fallback: "my-project", Required: true},
				{Token: "{{PROJECT_DESCRIPTION}}", Input: "description", MetadataKey: "package.description", Fallback: "A new project"},
				{Token: "{{AUTHOR_NAME}}", Input: "author", MetadataKey: "package.author", Fallback: "Your Name"},
				{Token: "{{AUTHOR_EMAIL}}", Input: "email", MetadataKey: "package.email", Fallback: "you@example.com"},
				{Token: "{{REPOSITORY_URL}}", Input: "repository", MetadataKey: "package.repository", Fallback: "https://github.com/you/my-project"},
			},
			TargetFiles: []string{
				"package.json",
				"README.md",
				"LICENSE",
			},
			RemovePatterns: []string{
				"node_modules",
				"node_modules/**",
				"package-lock.json",
				"yarn.lock",
				"pnpm-lock.yaml",
				"dist",
				"dist/**",
				"build",
				"build/**",
				"coverage",
				"coverage/**",
				".next",
				".next/**",
				"*.tsbuildinfo",
			},
			PreservePatterns: []string{
				".gitignore",
				".npmrc",
			},
			SensitivePatterns: []string{
				".env",
				".env.*",
				"*.pem",
				"*.key",
				"credentials.json",
			},
			RegenerationCommands: map[string]string{
				"node_modules":      "npm install",
				"node_modules/**":   "npm install",
				"package-lock.json": "npm install",
				"yarn.lock":         "yarn install",
				"pnpm-lock.yaml":    "pnpm install",
				"dist":              "npm run build",
				"dist/**":           "npm run build",
			},
			CreateFiles: []GeneratedFile{
				{Path: "TEMPLATE.md", Content: templateScaffold(
					"{{PROJECT_NAME}}",
					"{{PROJECT_DESCRIPTION}}",
					"{{AUTHOR_NAME}}",
					"{{AUTHOR_EMAIL}}",
					"{{REPOSITORY_URL}}",
				)},
			},
		},
		{
			ProjectType: "go",
			Placeholders: []PlaceholderKey{
				{Token: "{{MODULE_PATH}}", Input: "module", MetadataKey: "go.module", Fallback: "example.com/my-project", Required: true},
				{Token: "{{PROJECT_NAME}}", Input: "name", MetadataKey: "go.name", Fallback: "my-project", Required: true},
				{Token: "{{AUTHOR_NAME}}", Input: "author", MetadataKey: "git.author", Fallback: "Your Name"},
			},
			TargetFiles: []string{
				"go.mod",
				"README.md",
				"LICENSE",
			},
			RemovePatterns: []string{
				"go.sum",
				"vendor",
				"vendor/**",
				"bin",
				"bin/**",
				"*.test",
				"*.out",
			},
			PreservePatterns: []string{
				".gitignore",
				".golangci.yml",
			},
			SensitivePatterns: []string{
				".env",
				".env.*",
				"*.pem",
				"*.key",
			},
			RegenerationCommands: map[string]string{
				"go.sum":    "go mod tidy",
				"vendor":    "go mod vendor",
				"vendor/**": "go mod vendor",
			},
			CreateFiles: []GeneratedFile{
				{Path: "TEMPLATE.md", Content: templateScaffold(
					"{{MODULE_PATH}}",
					"{{PROJECT_NAME}}",
					"{{AUTHOR_NAME}}",
				)},
			},
		},
		{
			ProjectType: "python",
			Placeholders: []PlaceholderKey{
				{Token: "{{PROJECT_NAME}}", Input: "name", MetadataKey: "pyproject.name", Fallback: "my-project", Required: true},
				{Token: "{{PROJECT_DESCRIPTION}}", Input: "description", MetadataKey: "pyproject.description", Fallback: "A new project"},
				{Token: "{{AUTHOR_NAME}}", Input: "author", MetadataKey: "pyproject.author", Fallback: "Your Name"},
				{Token: "{{AUTHOR_EMAIL}}", Input: "email", MetadataKey: "pyproject.email", Fallback: "you@example.com"},
			},
			TargetFiles: []string{
				"pyproject.toml",
				"setup.py",
				"README.md",
				"LICENSE",
			},
			RemovePatterns: []string{
				"__pycache__",
				"**/__pycache__",
				"**/__pycache__/**",
				"*.pyc",
				"**/*.pyc",
				".venv",
				".venv/**",
				"venv",
				"venv/**",
				"*.egg-info",
				"*.egg-info/**",
				".pytest_cache",
				".pytest_cache/**",
				"poetry.lock",
				"uv.lock",
			},
			PreservePatterns: []string{
				".gitignore",
			},
			SensitivePatterns: []string{
				".env",
				".env.*",
				"*.pem",
				"*.key",
			},
			RegenerationCommands: map[string]string{
				".venv":       "python -m venv .venv && pip install -e .",
				".venv/**":    "python -m venv .venv && pip install -e .",
				"poetry.lock": "poetry install",
				"uv.lock":     "uv sync",
			},
			CreateFiles: []GeneratedFile{
				{Path: "TEMPLATE.md", Content: templateScaffold(
					"{{PROJECT_NAME}}",
					"{{PROJECT_DESCRIPTION}}",
					"{{AUTHOR_NAME}}",
					"{{AUTHOR_EMAIL}}",
				)},
			},
		},
		{
			ProjectType: "rust",
			Placeholders: []PlaceholderKey{
				{Token: "{{PROJECT_NAME}}", Input: "name", MetadataKey: "cargo.name", Fallback: "my-project", Required: true},
				{Token: "{{PROJECT_DESCRIPTION}}", Input: "description", MetadataKey: "cargo.description", Fallback: "A new project"},
				{Token: "{{AUTHOR_NAME}}", Input: "author", MetadataKey: "cargo.author", Fallback: "Your Name"},
			},
			TargetFiles: []string{
				"Cargo.toml",
				"README.md",
				"LICENSE",
			},
			RemovePatterns: []string{
				"target",
				"target/**",
				"Cargo.lock",
			},
			PreservePatterns: []string{
				".gitignore",
			},
			SensitivePatterns: []string{
				".env",
				".env.*",
				"*.pem",
				"*.key",
			},
			RegenerationCommands: map[string]string{
				"target":     "cargo build",
				"target/**":  "cargo build",
				"Cargo.lock": "cargo build",
			},
			CreateFiles: []GeneratedFile{
				{Path: "TEMPLATE.md", Content: templateScaffold(
					"{{PROJECT_NAME}}",
					"{{PROJECT_DESCRIPTION}}",
					"{{AUTHOR_NAME}}",
				)},
			},
		},
	}
}

// templateScaffold renders the TEMPLATE.md content documenting the tokens a
// converted template carries.
func templateScaffold(tokens ...string) string {
	var b strings.Builder
	b.WriteString("# Template\n\n")
	b.WriteString("This project was converted into a reusable template. The files named\n")
	b.WriteString("in the rule table carry these placeholder tokens:\n\n")
	for _, token := range tokens {
		b.WriteString("- `" + token + "`\n")
	}
	b.WriteString("\nRun `templatize restore` to turn the template back into the original\n")
	b.WriteString("project, or fill the tokens in by hand for a new one.\n")

	return b.String()
}
