// Package weather wires the demo agent team: a root weather agent answering
// city weather queries from a mock database, a greeting sub-agent and a
// farewell sub-agent, each backed by a different hosted model. Guardrails on
// the root agent block a configured keyword before the model is called and
// block configured cities before the weather tool runs.
//
// Session state keys used by the team:
//
//	user_preference_temperature_unit - "Celsius" (default) or "Fahrenheit"
//	last_city_checked                - written by get_weather
//	last_weather_report              - root agent output key
//	keyword_guardrail_triggered      - set when the keyword guardrail fires
//	tool_guardrail_triggered         - set when the city guardrail fires
package weather
