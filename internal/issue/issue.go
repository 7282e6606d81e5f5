// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	WorkspaceRootNotFoundId Id = iota + 1
	ManifestInvalidId
	ConfigLoadFailedId
	BundleConflictId
	ManifestDriftId
	WorkspaceDriftId
	UnsupportedLanguageId
	CodegenFailedId
	PermissionDeniedId
	UnsafeLibRootId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue markdown with glamour. stylePath is a glamour
// style name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	workspaceRootNotFoundIssue = &Issue{
		id: WorkspaceRootNotFoundId,
		mdMsg: `
# No workspace root found!

ubergen walks up from the current directory looking for the workspace
marker file (` + "`lerna.json`" + ` by default) and reached the filesystem root.

## Things you can try:
- Run ubergen from the aggregate package directory inside the monorepo
- If the workspace uses another marker, set it in ` + "`ubergen.cue`" + `:
~~~cue
workspace: marker: "pnpm-workspace.yaml"
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# A package manifest is invalid!

A ` + "`package.json`" + ` could not be parsed or has a field of the wrong type.
The error above names the file and the JSON path of the offending field.

## Things you can try:
- Fix the JSON syntax of the named file
- Dependency versions must be strings, bundle lists must be lists of strings`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The ubergen configuration file could not be read or does not match the
configuration schema.

## Things you can try:
- Print the effective configuration:
~~~
$ ubergen config show
~~~
- Remove unknown keys from ` + "`ubergen.cue`" + ` or ` + "`ubergen.toml`" + `
- Check ` + "`UBERGEN_*`" + ` environment variables and the ` + "`.env`" + ` file`,
	}

	bundleConflictIssue = &Issue{
		id: BundleConflictId,
		mdMsg: `
# Conflicting bundled dependency versions!

Two modules bundle the same third-party package at different versions. The
aggregate can only ship one copy.

## Things you can try:
- Align the version in every module's ` + "`devDependencies`" + ` or ` + "`dependencies`" + `
- Run ` + "`ubergen verify`" + ` again after aligning`,
	}

	manifestDriftIssue = &Issue{
		id: ManifestDriftId,
		mdMsg: `
# The aggregate manifest was out of date!

ubergen corrected the aggregate ` + "`package.json`" + ` (module versions,
bundled dependency pins) and wrote it back. The run fails so the change is
not lost.

## Things you can try:
- Review and commit the updated ` + "`package.json`" + `
- Run ubergen again; it succeeds once nothing needs fixing`,
	}

	workspaceDriftIssue = &Issue{
		id: WorkspaceDriftId,
		mdMsg: `
# The workspace hoisting list was out of date!

Bundled dependencies must not be hoisted. ubergen added the missing entries
to ` + "`workspaces.nohoist`" + ` in the workspace root manifest.

## Things you can try:
- Re-run the workspace install so the new layout takes effect
- Commit the updated workspace ` + "`package.json`" + ``,
	}

	unsupportedLanguageIssue = &Issue{
		id: UnsupportedLanguageId,
		mdMsg: `
# Unsupported binding language!

A module declares a binding target ubergen cannot translate. Only
` + "`dotnet`" + `, ` + "`java`" + ` and ` + "`python`" + ` are supported.

## Things you can try:
- Remove the target from the module's ` + "`jsii.targets`" + `
- Exclude the module from the aggregate with ` + "`\"ubergen\": {\"exclude\": true}`" + ``,
	}

	codegenFailedIssue = &Issue{
		id: CodegenFailedId,
		mdMsg: `
# Code generation failed!

An experimental module was reduced to its generated bindings, and the
configured generator command failed or is not configured.

## Things you can try:
- Set the generator command:
~~~cue
codegen: command: "cfn2ts --scope=$UBERGEN_SCOPES"
~~~
- Run the command by hand from the module directory to see its output`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

ubergen could not write to the aggregate package directory.

## Things you can try:
- Check file/directory permissions of the package directory
- Run ubergen from a checkout you own`,
	}

	unsafeLibRootIssue = &Issue{
		id: UnsafeLibRootId,
		mdMsg: `
# Unsafe library root!

The library root is cleared before modules are copied into it, and the
configured root contains the aggregate package directory.

## Things you can try:
- Point ` + "`--lib-root`" + ` at a directory inside the package, e.g. ` + "`lib`" + `
- Leave ` + "`--lib-root`" + ` unset to copy into the package directory itself`,
	}

	catalog = []*Issue{
		workspaceRootNotFoundIssue,
		manifestInvalidIssue,
		configLoadFailedIssue,
		bundleConflictIssue,
		manifestDriftIssue,
		workspaceDriftIssue,
		unsupportedLanguageIssue,
		codegenFailedIssue,
		permissionDeniedIssue,
		unsafeLibRootIssue,
	}

	issues = func() map[Id]*Issue {
		m := make(map[Id]*Issue, len(catalog))
		for _, i := range catalog {
			m[i.Id()] = i
		}
		return m
	}()
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	return slices.Clone(catalog)
}

func Get(id Id) *Issue {
	return issues[id]
}
