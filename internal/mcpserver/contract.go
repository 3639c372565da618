package mcpserver

// AnalysisFormat describes the analysis notes written by analyze_note.
const AnalysisFormat = `# notelens Analysis Note Format

analyze_note sends the note body and up to five first-degree linked notes
(the first 500 characters of each) to DeepSeek and stores the answer in a
new note in the vault root.

## File name

` + "`" + `Analysis - {note name} {UTC timestamp}.md` + "`" + `

The timestamp is ISO-8601 with millisecond precision where every ` + "`" + `:` + "`" + ` and
` + "`" + `.` + "`" + ` is replaced by ` + "`" + `-` + "`" + `, e.g. ` + "`" + `2024-03-05T14-07-09-123Z` + "`" + `.

## Body

` + "```" + `markdown
# Analysis of {note name}

## Summary
{model answer, verbatim}

## Key Tags
No tags found

## Important Links
No links found

## Emerging Themes
No themes identified

## Connection Strength
0/100

---
Analysis generated by DeepSeek AI at {local time}
` + "```" + `

Only the Summary section carries model output. The other sections always
show their placeholders.

## Errors

- ` + "`" + `No active file to analyze` + "`" + `: the path is empty or the note does not exist.
- ` + "`" + `Please set your DeepSeek API key in settings` + "`" + `: no API key configured.
- ` + "`" + `Failed to complete analysis: ...` + "`" + `: the API call or the write failed;
  nothing was created.
`
