/*
NAME
  lex_test.go

DESCRIPTION
  lex_test.go provides tests for the lexer in lex.go.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

