package bank

import "strings"

// projectNamePlaceholder is substituted into starter templates.
const projectNamePlaceholder = "{{PROJECT_NAME}}"

// starterTemplates seed a freshly initialized bank. Each carries the
// section headings structural merges will later anchor on.
var starterTemplates = map[CanonicalFile]string{
	Brief: `# Project Brief: {{PROJECT_NAME}}

## Purpose

_Why this project exists and the problem it solves._

## Goals

_The outcomes that define success._

## Scope

_What is in, and just as importantly, what is out._
`,
	ProductContext: `# Product Context: {{PROJECT_NAME}}

## Users

_Who uses this and what they are trying to get done._

## Experience

_How the product should feel to work with._
`,
	SystemPatterns: `# System Patterns: {{PROJECT_NAME}}

## Architecture

_The major components and how they talk to each other._

## Decisions

_Design decisions worth remembering, with their reasons._
`,
	TechContext: `# Tech Context: {{PROJECT_NAME}}

## Stack

_Languages, frameworks, and key dependencies._

## Tooling

_Build, test, and deployment setup._

## Constraints

_Technical limits the project lives within._
`,
	ActiveContext: `# Active Context: {{PROJECT_NAME}}

## Current Focus

_What is being worked on right now._

## Recent Notes

_Observations that have no better home yet._
`,
	Progress: `# Progress: {{PROJECT_NAME}}

## Done

_What already works._

## In Flight

_What is underway._

## Blocked

_What is stuck and on what._
`,
}

// StarterContent renders the starter template for a canonical file
// with the project name substituted in.
func StarterContent(f CanonicalFile, projectName string) string {
	tmpl, ok := starterTemplates[f]
	if !ok {
		return "# " + f.Title() + ": " + projectName + "\n"
	}
	return strings.ReplaceAll(tmpl, projectNamePlaceholder, projectName)
}
