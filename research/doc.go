// Package research implements the research assistant on top of the agent
// loop, the workflow graph and the state store.
//
// Two graphs are provided:
//
//   - The supervisor graph (clarify -> research_brief -> supervisor). The
//     supervisor loop plans the research with PlanTool, delegates one plan
//     step at a time to researcher loops with ConductResearch, reflects with
//     ThinkTool and finishes with ResearchComplete.
//   - The deep-search graph (generate_query -> web_search -> reflection),
//     which searches a set of generated queries concurrently and loops with
//     follow-up queries until the reflection is satisfied or the loop cap is
//     reached.
//
// Both graphs share Schema. Nested researcher loops work on private state;
// their findings reach the shared store only through the supervisor stage's
// directive.
package research
