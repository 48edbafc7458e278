package models

import "strings"

// Branch is an engineering branch resources are filed under.
type Branch struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Branches is the static branch catalogue.
var Branches = []Branch{
	{Code: "CSE", Name: "Computer Science and Engineering"},
	{Code: "ECE", Name: "Electronics and Communication Engineering"},
	{Code: "ME", Name: "Mechanical Engineering"},
	{Code: "CE", Name: "Civil Engineering"},
	{Code: "EEE", Name: "Electrical and Electronics Engineering"},
	{Code: "IT", Name: "Information Technology"},
	{Code: "EIE", Name: "Electronics and Instrumentation Engineering"},
	{Code: "BT", Name: "Biotechnology"},
	{Code: "BM", Name: "Biomedical Engineering"},
	{Code: "FT", Name: "Food Technology"},
	{Code: "AIDS", Name: "Artificial Intelligence and Data Science"},
	{Code: "AIML", Name: "Artificial Intelligence and Machine Learning"},
}

// IsValidBranch reports whether code names a catalogued branch.
func IsValidBranch(code string) bool {
	code = strings.ToUpper(code)
	for _, b := range Branches {
		if b.Code == code {
			return true
		}
	}
	return false
}
